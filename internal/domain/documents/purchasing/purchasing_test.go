package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/lifecycle"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func priced(t *testing.T, qty int64, price, discount string) documents.Line {
	t.Helper()
	l := documents.Line{LineID: id.New(), Item: catalogs.Ref{ID: id.New(), Code: "ITEM"}}
	l.Quantity = types.NewQuantity(qty)
	l.UnitPrice = types.MustMoney(price)
	l.DiscountPercent = decimal.RequireFromString(discount)
	require.NoError(t, l.Recalculate())
	return l
}

func orderedPO(t *testing.T, qty int64) *PurchaseOrder {
	t.Helper()
	po := NewPurchaseOrder(catalogs.Ref{ID: id.New(), Code: "ACME"}, now)
	po.Number = "PO-2026-00001"
	po.Lines = []PurchaseOrderLine{{Line: priced(t, qty, "1200", "5")}}
	require.NoError(t, po.Recalculate())
	po.Status = lifecycle.PurchaseOrderOrdered
	return po
}

func qty(n int64) *types.Quantity {
	q := types.NewQuantity(n)
	return &q
}

func TestRequisition_Lifecycle(t *testing.T) {
	r := NewRequisition(now)

	_, err := r.Fire(lifecycle.RequisitionSubmit, now)
	require.True(t, apperror.IsInvalidTransition(err), "empty requisition cannot be submitted")

	require.NoError(t, r.SetLines([]RequisitionLine{
		{Line: priced(t, 200, "1200", "5")},
		{Line: priced(t, 100, "890", "0")},
	}, now))
	assert.Equal(t, "317000.00", types.FormatMoney(r.Totals.Subtotal))
	assert.Equal(t, 2, r.Lines[1].LineNo)

	tr, err := r.Fire(lifecycle.RequisitionSubmit, now)
	require.NoError(t, err)
	assert.Equal(t, "draft", tr.From)
	assert.Equal(t, "pending", tr.To)

	err = r.SetLines(nil, now)
	assert.True(t, apperror.IsInvalidTransition(err), "lines are frozen after submit")

	_, err = r.Approve("m.ortiz", now)
	require.NoError(t, err)
	assert.Equal(t, "m.ortiz", r.ApprovedBy)
	require.NotNil(t, r.ApprovedDate)
	assert.Equal(t, lifecycle.RequisitionApproved, r.Status)

	_, err = r.Reject("late", now)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Equal(t, lifecycle.RequisitionApproved, r.Status)
}

func TestGoodsReceipt_CumulativeReceipts(t *testing.T) {
	po := orderedPO(t, 200)
	orderLine := po.Lines[0].LineID

	gr1, err := NewGoodsReceipt(po, []ReceiptLineInput{
		{OrderLineID: orderLine, Received: types.NewQuantity(150), Accepted: qty(150), Rejected: qty(0)},
	}, nil, now)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.QualityPassed, gr1.Lines[0].QualityStatus)

	_, err = gr1.Fire(lifecycle.GoodsReceiptStart, now)
	require.NoError(t, err)
	_, err = gr1.Fire(lifecycle.GoodsReceiptComplete, now)
	require.NoError(t, err)

	tr, err := po.ApplyReceipts([]*GoodsReceipt{gr1}, now)
	require.NoError(t, err)
	assert.Equal(t, "partially_received", tr.To)

	receipts := []*GoodsReceipt{gr1}
	prior := ReceivedByLine(receipts, NotCancelled)

	_, err = NewGoodsReceipt(po, []ReceiptLineInput{
		{OrderLineID: orderLine, Received: types.NewQuantity(60)},
	}, prior, now)
	require.True(t, apperror.HasCode(err, apperror.CodeOverReceipt))

	gr2, err := NewGoodsReceipt(po, []ReceiptLineInput{
		{OrderLineID: orderLine, Received: types.NewQuantity(50)},
	}, prior, now)
	require.NoError(t, err)
	_, err = gr2.Fire(lifecycle.GoodsReceiptStart, now)
	require.NoError(t, err)

	_, err = gr2.Fire(lifecycle.GoodsReceiptComplete, now)
	require.True(t, apperror.IsInvalidTransition(err), "uninspected line blocks completion")

	err = gr2.Inspect(gr2.Lines[0].LineID, types.NewQuantity(45), types.NewQuantity(4), now)
	require.True(t, apperror.HasCode(err, apperror.CodeQuantityMismatch))
	assert.Equal(t, lifecycle.QualityPending, gr2.Lines[0].QualityStatus)

	require.NoError(t, gr2.Inspect(gr2.Lines[0].LineID, types.NewQuantity(45), types.NewQuantity(5), now))
	assert.Equal(t, lifecycle.QualityPartial, gr2.Lines[0].QualityStatus)
	_, err = gr2.Fire(lifecycle.GoodsReceiptComplete, now)
	require.NoError(t, err)

	tr, err = po.ApplyReceipts([]*GoodsReceipt{gr1, gr2}, now)
	require.NoError(t, err)
	assert.Equal(t, "received", tr.To)
	assert.Equal(t, types.NewQuantity(195), po.Lines[0].AcceptedQuantity)
	assert.Equal(t, types.NewQuantity(5), po.Lines[0].RejectedQuantity)
	assert.Equal(t, types.NewQuantity(195), po.Lines[0].Unbilled())
}

func TestNewGoodsReceipt_Rejects(t *testing.T) {
	po := orderedPO(t, 10)

	po.Status = lifecycle.PurchaseOrderApproved
	_, err := NewGoodsReceipt(po, []ReceiptLineInput{{OrderLineID: po.Lines[0].LineID, Received: types.NewQuantity(1)}}, nil, now)
	assert.True(t, apperror.IsInvalidTransition(err))

	po.Status = lifecycle.PurchaseOrderOrdered
	_, err = NewGoodsReceipt(po, []ReceiptLineInput{{OrderLineID: id.New(), Received: types.NewQuantity(1)}}, nil, now)
	assert.True(t, apperror.IsNotFound(err))

	_, err = NewGoodsReceipt(po, []ReceiptLineInput{{OrderLineID: po.Lines[0].LineID}}, nil, now)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = NewGoodsReceipt(po, []ReceiptLineInput{
		{OrderLineID: po.Lines[0].LineID, Received: types.NewQuantity(5), Accepted: qty(5), Rejected: qty(1)},
	}, nil, now)
	assert.True(t, apperror.HasCode(err, apperror.CodeQuantityMismatch))
}

func TestPurchaseOrder_CancelGuard(t *testing.T) {
	po := orderedPO(t, 10)

	received := map[id.ID]types.Quantity{po.Lines[0].LineID: types.NewQuantity(3)}
	_, err := po.Fire(lifecycle.PurchaseOrderCancel, po.Guard(received), now)
	require.True(t, apperror.IsInvalidTransition(err))
	assert.Equal(t, lifecycle.PurchaseOrderOrdered, po.Status)

	_, err = po.Fire(lifecycle.PurchaseOrderCancel, po.Guard(nil), now)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.PurchaseOrderCancelled, po.Status)
}

func TestPurchaseOrder_AddInvoiced(t *testing.T) {
	po := orderedPO(t, 10)
	lineID := po.Lines[0].LineID
	po.Lines[0].ReceivedQuantity = types.NewQuantity(8)
	po.Lines[0].AcceptedQuantity = types.NewQuantity(8)

	require.NoError(t, po.AddInvoiced(lineID, types.NewQuantity(8)))
	assert.False(t, po.Unbilled())

	err := po.AddInvoiced(lineID, types.NewQuantity(1))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	require.NoError(t, po.AddInvoiced(lineID, types.NewQuantity(-8)))
	assert.True(t, po.Unbilled())
}

func TestPurchaseOrder_Validate(t *testing.T) {
	ctx := context.Background()
	po := orderedPO(t, 10)
	require.NoError(t, po.Validate(ctx))

	po.Supplier = catalogs.Ref{}
	assert.Error(t, po.Validate(ctx))
}
