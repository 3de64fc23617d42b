package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/core/numerator"
	"orderflow/internal/core/types"
	"orderflow/internal/domain"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/documents/billing"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/lifecycle"
	"orderflow/internal/domain/pipeline"
	"orderflow/internal/infrastructure/storage/memory"
)

var clock = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *pipeline.Service
	stores  pipeline.Stores
	catalog *catalogs.MemoryCatalog
	txm     *memory.TxManager
	events  *recorder

	steel, cement   catalogs.Item
	supplier        catalogs.Supplier
	customer        catalogs.Customer
	mainWH, northWH catalogs.Warehouse
}

type recorder struct {
	mu          sync.Mutex
	transitions []documents.Transition
	failures    []string
}

func (r *recorder) Transitioned(_ context.Context, t documents.Transition) {
	r.mu.Lock()
	r.transitions = append(r.transitions, t)
	r.mu.Unlock()
}

func (r *recorder) OrchestrationFailed(_ context.Context, operation string, _ error) {
	r.mu.Lock()
	r.failures = append(r.failures, operation)
	r.mu.Unlock()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		events:   &recorder{},
		steel:    catalogs.Item{ID: id.New(), Code: "STL-10", Name: "Steel rod 10mm", DefaultTaxPercent: decimal.NewFromInt(18), IsActive: true},
		cement:   catalogs.Item{ID: id.New(), Code: "CEM-50", Name: "Cement 50kg", IsActive: true},
		supplier: catalogs.Supplier{ID: id.New(), Code: "ACME", Name: "Acme Metals", PaymentTermsDays: 45},
		customer: catalogs.Customer{ID: id.New(), Code: "BUILDCO", Name: "BuildCo"},
		mainWH:   catalogs.Warehouse{ID: id.New(), Code: "MAIN", Name: "Main", IsDefault: true, IsActive: true},
		northWH:  catalogs.Warehouse{ID: id.New(), Code: "NORTH", Name: "North", IsActive: true},
	}

	catalog := catalogs.NewMemoryCatalog()
	catalog.PutItem(f.steel)
	catalog.PutItem(f.cement)
	catalog.PutSupplier(f.supplier)
	catalog.PutCustomer(f.customer)
	catalog.PutWarehouse(f.mainWH)
	catalog.PutWarehouse(f.northWH)

	f.catalog = catalog
	f.stores, f.txm = memory.NewStores()
	f.svc = f.service(f.stores)
	return f
}

func (f *fixture) service(stores pipeline.Stores) *pipeline.Service {
	return pipeline.NewService(stores, f.catalog, numerator.NewMemory(), f.txm,
		pipeline.WithObserver(f.events),
		pipeline.WithClock(func() time.Time { return clock }),
	)
}

func line(item catalogs.Item, qty int64, price, discount string) documents.LineInput {
	return documents.LineInput{
		ItemID:          item.ID,
		Quantity:        types.NewQuantity(qty),
		UnitPrice:       types.MustMoney(price),
		DiscountPercent: decimal.RequireFromString(discount),
	}
}

func qty(n int64) *types.Quantity {
	q := types.NewQuantity(n)
	return &q
}

// orderedPO creates a purchase order for 200 steel rods and sends it.
func (f *fixture) orderedPO(t *testing.T) *purchasing.PurchaseOrder {
	t.Helper()
	ctx := context.Background()

	po, err := f.svc.CreatePurchaseOrder(ctx, pipeline.PurchaseOrderInput{
		SupplierID: f.supplier.ID,
		Lines:      []documents.LineInput{line(f.steel, 200, "1200", "5")},
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	_, err = f.svc.ApprovePurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	po, err = f.svc.ConfirmPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, lifecycle.PurchaseOrderOrdered, po.Status)
	return po
}

func TestRequisitionToPurchaseOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req, err := f.svc.CreateRequisition(ctx, pipeline.RequisitionInput{
		RequestedBy: "j.doe",
		Department:  "construction",
		Lines: []documents.LineInput{
			line(f.steel, 200, "1200", "5"),
			line(f.cement, 100, "890", "0"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "REQ-2026-00001", req.Number)
	assert.Equal(t, "317000.00", types.FormatMoney(req.Totals.Subtotal))

	_, err = f.svc.ConvertRequisition(ctx, req.ID, f.supplier.ID)
	assert.True(t, apperror.IsInvalidTransition(err), "draft requisition cannot be converted")

	_, err = f.svc.SubmitRequisition(ctx, req.ID)
	require.NoError(t, err)
	req, err = f.svc.ApproveRequisition(ctx, req.ID, "m.ortiz")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RequisitionApproved, req.Status)

	po, err := f.svc.ConvertRequisition(ctx, req.ID, f.supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-00001", po.Number)
	assert.Equal(t, lifecycle.PurchaseOrderDraft, po.Status)
	assert.Equal(t, req.ID, po.ParentID())
	assert.Equal(t, "317000.00", types.FormatMoney(po.Totals.Subtotal))
	require.Len(t, po.Lines, 2)
	assert.Equal(t, req.Lines[0].LineID, po.Lines[0].RequisitionLineID)
	assert.NotEqual(t, req.Lines[0].LineID, po.Lines[0].LineID)

	stored, err := f.svc.GetRequisition(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RequisitionApproved, stored.Status, "conversion leaves the requisition approved")
}

func TestCumulativeReceipts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	po := f.orderedPO(t)
	orderLine := po.Lines[0].LineID

	gr, po, err := f.svc.ReceiveGoods(ctx, po.ID, []purchasing.ReceiptLineInput{
		{OrderLineID: orderLine, Received: types.NewQuantity(150)},
	})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.GoodsReceiptCompleted, gr.Status)
	assert.Equal(t, lifecycle.PurchaseOrderPartiallyReceived, po.Status)

	_, _, err = f.svc.ReceiveGoods(ctx, po.ID, []purchasing.ReceiptLineInput{
		{OrderLineID: orderLine, Received: types.NewQuantity(60)},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeOverReceipt))

	gr, err = f.svc.CreateGoodsReceipt(ctx, po.ID, []purchasing.ReceiptLineInput{
		{OrderLineID: orderLine, Received: types.NewQuantity(50)},
	})
	require.NoError(t, err)
	assert.Equal(t, "GRN-2026-00002", gr.Number)

	_, err = f.svc.InspectGoodsReceipt(ctx, gr.ID, gr.Lines[0].LineID, types.NewQuantity(45), types.NewQuantity(4))
	assert.True(t, apperror.HasCode(err, apperror.CodeQuantityMismatch))

	gr, err = f.svc.InspectGoodsReceipt(ctx, gr.ID, gr.Lines[0].LineID, types.NewQuantity(45), types.NewQuantity(5))
	require.NoError(t, err)
	_, err = f.svc.StartGoodsReceipt(ctx, gr.ID)
	require.NoError(t, err)

	gr, po, err = f.svc.CompleteGoodsReceipt(ctx, gr.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.QualityPartial, gr.Lines[0].QualityStatus)
	assert.Equal(t, lifecycle.PurchaseOrderReceived, po.Status)
	assert.Equal(t, types.NewQuantity(200), po.Lines[0].ReceivedQuantity)
	assert.Equal(t, types.NewQuantity(195), po.Lines[0].AcceptedQuantity)
	assert.Equal(t, types.NewQuantity(5), po.Lines[0].RejectedQuantity)

	_, err = f.svc.CancelPurchaseOrder(ctx, po.ID)
	assert.True(t, apperror.IsInvalidTransition(err))

	inv, err := f.svc.CreatePurchaseInvoice(ctx, po.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "PINV-2026-00001", inv.Number)
	assert.Equal(t, "222300.00", types.FormatMoney(inv.Totals.Subtotal))
	assert.Equal(t, "262314.00", types.FormatMoney(inv.Totals.Total))
	assert.Equal(t, clock.AddDate(0, 0, 45), inv.DueDate)

	_, err = f.svc.CreatePurchaseInvoice(ctx, po.ID, time.Time{})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "everything accepted is already billed")

	_, err = f.svc.CancelInvoice(ctx, billing.TypePurchase, inv.ID)
	require.NoError(t, err)
	po, err = f.svc.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, po.Lines[0].InvoicedQuantity.IsZero())
}

func TestReceiveGoods_HalfGivenInspection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	po := f.orderedPO(t)
	orderLine := po.Lines[0].LineID

	gr, po, err := f.svc.ReceiveGoods(ctx, po.ID, []purchasing.ReceiptLineInput{
		{OrderLineID: orderLine, Received: types.NewQuantity(50), Rejected: qty(5)},
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(45), gr.Lines[0].AcceptedQuantity)
	assert.Equal(t, types.NewQuantity(5), gr.Lines[0].RejectedQuantity)
	assert.Equal(t, lifecycle.QualityPartial, gr.Lines[0].QualityStatus)
	assert.Equal(t, types.NewQuantity(45), po.Lines[0].AcceptedQuantity)

	gr, err = f.svc.CreateGoodsReceipt(ctx, po.ID, []purchasing.ReceiptLineInput{
		{OrderLineID: orderLine, Received: types.NewQuantity(30), Accepted: qty(30)},
	})
	require.NoError(t, err)
	assert.True(t, gr.Lines[0].RejectedQuantity.IsZero())
	assert.Equal(t, lifecycle.QualityPassed, gr.Lines[0].QualityStatus)

	_, _, err = f.svc.ReceiveGoods(ctx, po.ID, []purchasing.ReceiptLineInput{
		{OrderLineID: orderLine, Received: types.NewQuantity(10), Rejected: qty(12)},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "rejected above received leaves a negative remainder")

	stored, err := f.svc.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(45), stored.Lines[0].AcceptedQuantity)
}

func TestCancelPurchaseOrder_IgnoresCancelledReceipts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	po := f.orderedPO(t)

	gr, err := f.svc.CreateGoodsReceipt(ctx, po.ID, []purchasing.ReceiptLineInput{
		{OrderLineID: po.Lines[0].LineID, Received: types.NewQuantity(20)},
	})
	require.NoError(t, err)

	_, err = f.svc.CancelPurchaseOrder(ctx, po.ID)
	require.True(t, apperror.IsInvalidTransition(err))

	_, err = f.svc.CancelGoodsReceipt(ctx, gr.ID)
	require.NoError(t, err)

	po, err = f.svc.CancelPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.PurchaseOrderCancelled, po.Status)
}

func TestSalesFlow_PartialPick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	so, err := f.svc.CreateSalesOrder(ctx, pipeline.SalesOrderInput{
		CustomerID: f.customer.ID,
		Lines: []pipeline.SalesLineInput{
			{LineInput: line(f.steel, 75, "500", "0"), WarehouseID: f.mainWH.ID},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SO-2026-00001", so.Number)

	picklists, err := f.svc.GeneratePicklist(ctx, so.ID, pipeline.PicklistOptions{})
	require.NoError(t, err)
	require.Len(t, picklists, 1)
	pl := picklists[0]
	assert.Equal(t, types.NewQuantity(75), pl.Lines[0].OrderedQuantity)

	so, err = f.svc.GetSalesOrder(ctx, so.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.SalesOrderConfirmed, so.Status, "draft order is confirmed by picklist generation")

	_, err = f.svc.GeneratePicklist(ctx, so.ID, pipeline.PicklistOptions{})
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	_, err = f.svc.StartPicklist(ctx, pl.ID)
	require.NoError(t, err)

	_, err = f.svc.RecordPick(ctx, pl.ID, pl.Lines[0].LineID, types.NewQuantity(80))
	assert.True(t, apperror.HasCode(err, apperror.CodeOverPick))

	pl, err = f.svc.RecordPick(ctx, pl.ID, pl.Lines[0].LineID, types.NewQuantity(60))
	require.NoError(t, err)
	pl, err = f.svc.CompletePicklist(ctx, pl.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.PicklistPicked, pl.Status)

	so, err = f.svc.GetSalesOrder(ctx, so.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.SalesOrderPicked, so.Status)
	assert.Equal(t, types.NewQuantity(60), so.Lines[0].PickedQuantity)
	assert.Equal(t, types.NewQuantity(15), so.Lines[0].Unpicked())

	_, err = f.svc.CreateSalesInvoice(ctx, so.ID, time.Time{})
	assert.True(t, apperror.IsInvalidTransition(err), "nothing is dispatched yet")

	d, err := f.svc.CreateDispatch(ctx, pl.ID, "DHL", "TRK-1")
	require.NoError(t, err)
	_, err = f.svc.CreateDispatch(ctx, pl.ID, "DHL", "TRK-2")
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))

	_, err = f.svc.ShipDispatch(ctx, d.ID)
	require.NoError(t, err)
	_, err = f.svc.DepartDispatch(ctx, d.ID, "Main dock")
	require.NoError(t, err)
	_, err = f.svc.TrackDispatch(ctx, d.ID, "", "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "tracking needs a location")
	d, err = f.svc.DeliverDispatch(ctx, d.ID, "signed by site manager")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.DispatchDelivered, d.Status)
	assert.Len(t, d.Tracking(), 4)

	so, err = f.svc.GetSalesOrder(ctx, so.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.SalesOrderDelivered, so.Status)
	assert.Equal(t, types.NewQuantity(60), so.Lines[0].DispatchedQuantity)

	_, err = f.svc.CompleteSalesOrder(ctx, so.ID)
	assert.True(t, apperror.IsInvalidTransition(err), "not invoiced")

	inv, err := f.svc.CreateSalesInvoice(ctx, so.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "35400.00", types.FormatMoney(inv.Totals.Total))
	assert.Equal(t, clock.AddDate(0, 0, pipeline.DefaultPaymentTermsDays), inv.DueDate)

	_, err = f.svc.IssueInvoice(ctx, billing.TypeSales, inv.ID)
	require.NoError(t, err)
	inv, err = f.svc.RecordPayment(ctx, billing.TypeSales, inv.ID, types.MustMoney("35000"), "WIRE-1")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.InvoicePartiallyPaid, inv.Status)

	_, err = f.svc.CompleteSalesOrder(ctx, so.ID)
	assert.True(t, apperror.IsInvalidTransition(err), "invoice not settled")

	inv, err = f.svc.RecordPayment(ctx, billing.TypeSales, inv.ID, types.MustMoney("400"), "WIRE-2")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.InvoicePaid, inv.Status)

	so, err = f.svc.CompleteSalesOrder(ctx, so.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.SalesOrderCompleted, so.Status)

	res, err := f.svc.ListInvoices(ctx, billing.TypeSales, domain.ListFilter{ParentID: so.ID})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	res, err = f.svc.ListInvoices(ctx, billing.TypePurchase, domain.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestGeneratePicklist_MultipleWarehouses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	so, err := f.svc.CreateSalesOrder(ctx, pipeline.SalesOrderInput{
		CustomerID: f.customer.ID,
		Lines: []pipeline.SalesLineInput{
			{LineInput: line(f.steel, 10, "500", "0"), WarehouseID: f.mainWH.ID},
			{LineInput: line(f.cement, 20, "890", "0"), WarehouseID: f.northWH.ID},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.GeneratePicklist(ctx, so.ID, pipeline.PicklistOptions{})
	require.True(t, apperror.HasCode(err, apperror.CodeMultipleWarehouses))
	appErr, _ := apperror.AsAppError(err)
	assert.Len(t, appErr.Details["warehouses"], 2)

	stored, err := f.svc.GetSalesOrder(ctx, so.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.SalesOrderDraft, stored.Status, "failed generation confirms nothing")

	picklists, err := f.svc.GeneratePicklist(ctx, so.ID, pipeline.PicklistOptions{SplitByWarehouse: true})
	require.NoError(t, err)
	assert.Len(t, picklists, 2)
}

// failingUpdates makes every Update of the wrapped store fail.
type failingUpdates[T domain.Document] struct {
	domain.DocumentStore[T]
	err error
}

func (s failingUpdates[T]) Update(context.Context, T) error { return s.err }

func TestReceiveGoods_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")

	f := newFixture(t)
	po := f.orderedPO(t)

	// The receipt insert succeeds, the order update after it fails.
	stores := f.stores
	stores.PurchaseOrders = failingUpdates[*purchasing.PurchaseOrder]{DocumentStore: f.stores.PurchaseOrders, err: boom}
	svc := f.service(stores)

	_, _, err := svc.ReceiveGoods(ctx, po.ID, []purchasing.ReceiptLineInput{
		{OrderLineID: po.Lines[0].LineID, Received: types.NewQuantity(150)},
	})
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrchestrationFailure, appErr.Code)
	assert.Equal(t, []string{"create goods_receipt"}, appErr.Details["succeeded"])
	assert.Equal(t, []string{"update purchase_order PO-2026-00001"}, appErr.Details["failed"])
	assert.Equal(t, []string{"receive goods"}, f.events.failures)

	receipts, err := f.svc.ListGoodsReceipts(ctx, domain.ListFilter{ParentID: po.ID})
	require.NoError(t, err)
	assert.Empty(t, receipts.Items, "the receipt insert is rolled back")

	stored, err := f.svc.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.PurchaseOrderOrdered, stored.Status)
}

func TestObserver_ReceivesCommittedTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	po := f.orderedPO(t)

	var got []string
	for _, tr := range f.events.transitions {
		assert.Equal(t, po.Number, tr.Number)
		got = append(got, tr.Action)
	}
	assert.Equal(t, []string{"submit", "approve", "confirm"}, got)

	_, err := f.svc.CancelGoodsReceipt(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
	assert.Len(t, f.events.transitions, 3)
	assert.Empty(t, f.events.failures)
}

type sink struct {
	recorded []documents.Transition
	err      error
}

func (s *sink) Record(_ context.Context, ts []documents.Transition) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, ts...)
	return nil
}

func TestEventSink_RecordsInsideTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	events := &sink{}
	svc := pipeline.NewService(f.stores, f.catalog, numerator.NewMemory(), f.txm,
		pipeline.WithEventSink(events),
		pipeline.WithClock(func() time.Time { return clock }),
	)

	po, err := svc.CreatePurchaseOrder(ctx, pipeline.PurchaseOrderInput{
		SupplierID: f.supplier.ID,
		Lines:      []documents.LineInput{line(f.steel, 10, "1200", "0")},
	})
	require.NoError(t, err)
	_, err = svc.SubmitPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)

	require.Len(t, events.recorded, 1)
	assert.Equal(t, po.ID, events.recorded[0].DocumentID)
	assert.Equal(t, po.Number, events.recorded[0].Number)
	assert.Equal(t, "submit", events.recorded[0].Action)

	events.err = errors.New("outbox unavailable")
	_, err = svc.ApprovePurchaseOrder(ctx, po.ID)
	require.ErrorIs(t, err, events.err)

	stored, err := svc.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.PurchaseOrderPending, stored.Status, "the update is rolled back with the event")
}
