package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/types"
)

func TestRequisitionMachine(t *testing.T) {
	assertTable(t, RequisitionMachine, map[RequisitionStatus][]RequisitionAction{
		RequisitionDraft:    {RequisitionSubmit, RequisitionCancel},
		RequisitionPending:  {RequisitionApprove, RequisitionReject, RequisitionCancel},
		RequisitionApproved: {RequisitionCancel},
	}, RequisitionGuard{LineCount: 1})

	to, err := RequisitionMachine.Fire(RequisitionPending, RequisitionApprove, RequisitionGuard{LineCount: 2})
	require.NoError(t, err)
	assert.Equal(t, RequisitionApproved, to)

	_, err = RequisitionMachine.Fire(RequisitionPending, RequisitionApprove, RequisitionGuard{})
	assert.True(t, apperror.IsInvalidTransition(err))

	to, err = RequisitionMachine.Fire(RequisitionApproved, RequisitionCancel, RequisitionGuard{})
	require.NoError(t, err)
	assert.Equal(t, RequisitionCancelled, to)
}

func TestPurchaseOrderMachine(t *testing.T) {
	assertTable(t, PurchaseOrderMachine, map[PurchaseOrderStatus][]PurchaseOrderAction{
		PurchaseOrderDraft:             {PurchaseOrderSubmit, PurchaseOrderCancel},
		PurchaseOrderPending:           {PurchaseOrderApprove, PurchaseOrderCancel},
		PurchaseOrderApproved:          {PurchaseOrderConfirm, PurchaseOrderCancel},
		PurchaseOrderOrdered:           {PurchaseOrderReceivePartial, PurchaseOrderReceiveFull, PurchaseOrderCancel},
		PurchaseOrderPartiallyReceived: {PurchaseOrderReceivePartial, PurchaseOrderReceiveFull},
	}, PurchaseOrderGuard{})
}

func TestPurchaseOrderMachine_ReceiptGuards(t *testing.T) {
	ordered := types.NewQuantity(200)
	partial := PurchaseOrderGuard{Lines: []LineProgress{{Ordered: ordered, Received: types.NewQuantity(150)}}}
	full := PurchaseOrderGuard{Lines: []LineProgress{{Ordered: ordered, Received: ordered}}}
	none := PurchaseOrderGuard{Lines: []LineProgress{{Ordered: ordered}}}

	assert.Equal(t, PurchaseOrderReceivePartial, partial.ReceiptAction())
	assert.Equal(t, PurchaseOrderReceiveFull, full.ReceiptAction())

	to, err := PurchaseOrderMachine.Fire(PurchaseOrderOrdered, PurchaseOrderReceivePartial, partial)
	require.NoError(t, err)
	assert.Equal(t, PurchaseOrderPartiallyReceived, to)

	to, err = PurchaseOrderMachine.Fire(PurchaseOrderPartiallyReceived, PurchaseOrderReceiveFull, full)
	require.NoError(t, err)
	assert.Equal(t, PurchaseOrderReceived, to)

	_, err = PurchaseOrderMachine.Fire(PurchaseOrderPartiallyReceived, PurchaseOrderReceiveFull, partial)
	assert.True(t, apperror.IsInvalidTransition(err), "received requires every line complete")

	_, err = PurchaseOrderMachine.Fire(PurchaseOrderOrdered, PurchaseOrderReceivePartial, none)
	assert.True(t, apperror.IsInvalidTransition(err))

	_, err = PurchaseOrderMachine.Fire(PurchaseOrderOrdered, PurchaseOrderCancel, partial)
	assert.True(t, apperror.IsInvalidTransition(err), "cancel after a receipt")

	to, err = PurchaseOrderMachine.Fire(PurchaseOrderOrdered, PurchaseOrderCancel, none)
	require.NoError(t, err)
	assert.Equal(t, PurchaseOrderCancelled, to)

	assert.True(t, CanReceive(PurchaseOrderOrdered))
	assert.False(t, CanReceive(PurchaseOrderApproved))
}

func TestGoodsReceiptMachine(t *testing.T) {
	assertTable(t, GoodsReceiptMachine, map[GoodsReceiptStatus][]GoodsReceiptAction{
		GoodsReceiptPending:    {GoodsReceiptStart, GoodsReceiptCancel},
		GoodsReceiptInProgress: {GoodsReceiptComplete, GoodsReceiptCancel},
	}, GoodsReceiptGuard{LineCount: 1})

	_, err := GoodsReceiptMachine.Fire(GoodsReceiptInProgress, GoodsReceiptComplete, GoodsReceiptGuard{LineCount: 2, Unresolved: 1})
	assert.True(t, apperror.IsInvalidTransition(err))

	to, err := GoodsReceiptMachine.Fire(GoodsReceiptInProgress, GoodsReceiptComplete, GoodsReceiptGuard{LineCount: 2})
	require.NoError(t, err)
	assert.Equal(t, GoodsReceiptCompleted, to)

	assert.True(t, QualityPartial.Resolved())
	assert.False(t, QualityPending.Resolved())
}

func TestInvoiceMachine(t *testing.T) {
	total := types.MustMoney("100.00")
	assertTable(t, InvoiceMachine, map[InvoiceStatus][]InvoiceAction{
		InvoiceDraft:         {InvoiceIssue, InvoiceCancel},
		InvoicePending:       {InvoiceRecordPayment, InvoiceCancel},
		InvoicePartiallyPaid: {InvoiceRecordPayment},
		InvoiceOverdue:       {InvoiceRecordPayment},
	}, InvoiceGuard{Total: total, Paid: total})

	issued, err := InvoiceMachine.Fire(InvoiceDraft, InvoiceIssue, InvoiceGuard{Total: total})
	require.NoError(t, err)
	assert.Equal(t, InvoicePending, issued)

	issued, err = InvoiceMachine.Fire(InvoiceDraft, InvoiceIssue, InvoiceGuard{Total: types.Zero()})
	require.NoError(t, err)
	assert.Equal(t, InvoicePaid, issued, "nothing to pay settles on issue")

	tests := []struct {
		name string
		from InvoiceStatus
		paid string
		want InvoiceStatus
		code string
	}{
		{"paid in full", InvoicePending, "100.00", InvoicePaid, ""},
		{"partial", InvoicePending, "40.00", InvoicePartiallyPaid, ""},
		{"settles partial", InvoicePartiallyPaid, "100", InvoicePaid, ""},
		{"overdue partial payment", InvoiceOverdue, "60", InvoicePartiallyPaid, ""},
		{"overpayment", InvoicePending, "100.01", InvoicePending, apperror.CodeValidation},
		{"zero payment", InvoicePending, "0", InvoicePending, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InvoiceMachine.Fire(tt.from, InvoiceRecordPayment, InvoiceGuard{Total: total, Paid: types.MustMoney(tt.paid)})
			if tt.code != "" {
				assert.True(t, apperror.HasCode(err, tt.code))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveInvoiceStatus(t *testing.T) {
	due := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	before := due.Add(-time.Hour)
	after := due.Add(24 * time.Hour)
	total := types.MustMoney("500")

	assert.Equal(t, InvoicePending, EffectiveInvoiceStatus(InvoicePending, due, total, types.Zero(), before))
	assert.Equal(t, InvoiceOverdue, EffectiveInvoiceStatus(InvoicePending, due, total, types.Zero(), after))
	assert.Equal(t, InvoiceOverdue, EffectiveInvoiceStatus(InvoicePartiallyPaid, due, total, types.MustMoney("100"), after))
	assert.Equal(t, InvoicePaid, EffectiveInvoiceStatus(InvoicePaid, due, total, total, after))
	assert.Equal(t, InvoiceDraft, EffectiveInvoiceStatus(InvoiceDraft, due, total, types.Zero(), after))
	assert.Equal(t, InvoicePending, EffectiveInvoiceStatus(InvoicePending, time.Time{}, total, types.Zero(), after))

	assert.Equal(t, InvoicePending, StoredInvoiceStatus(InvoiceOverdue, types.Zero()))
	assert.Equal(t, InvoicePartiallyPaid, StoredInvoiceStatus(InvoiceOverdue, types.MustMoney("1")))
	assert.Equal(t, InvoicePaid, StoredInvoiceStatus(InvoicePaid, total))
}

func TestSalesOrderMachine(t *testing.T) {
	assertTable(t, SalesOrderMachine, map[SalesOrderStatus][]SalesOrderAction{
		SalesOrderDraft:      {SalesOrderConfirm, SalesOrderCancel},
		SalesOrderConfirmed:  {SalesOrderMarkPicked, SalesOrderCancel},
		SalesOrderPicked:     {SalesOrderReopen, SalesOrderMarkDispatched, SalesOrderCancel},
		SalesOrderDispatched: {SalesOrderMarkDelivered, SalesOrderCancel},
		SalesOrderDelivered:  {SalesOrderComplete},
	}, SalesOrderGuard{LineCount: 1, Invoices: 1})

	_, err := SalesOrderMachine.Fire(SalesOrderDelivered, SalesOrderComplete, SalesOrderGuard{Invoices: 2, Unpaid: 1})
	assert.True(t, apperror.IsInvalidTransition(err))

	_, err = SalesOrderMachine.Fire(SalesOrderDelivered, SalesOrderComplete, SalesOrderGuard{})
	assert.True(t, apperror.IsInvalidTransition(err))

	to, err := SalesOrderMachine.Fire(SalesOrderDelivered, SalesOrderComplete, SalesOrderGuard{Invoices: 1})
	require.NoError(t, err)
	assert.Equal(t, SalesOrderCompleted, to)

	to, err = SalesOrderMachine.Fire(SalesOrderPicked, SalesOrderReopen, SalesOrderGuard{LineCount: 1})
	require.NoError(t, err)
	assert.Equal(t, SalesOrderConfirmed, to)

	_, err = SalesOrderMachine.Fire(SalesOrderCancelled, SalesOrderMarkDelivered, SalesOrderGuard{})
	assert.True(t, apperror.IsInvalidTransition(err), "a cancelled order never regresses")
}

func TestPicklistMachine(t *testing.T) {
	assertTable(t, PicklistMachine, map[PicklistStatus][]PicklistAction{
		PicklistCreated:    {PicklistStart, PicklistRecordPick, PicklistHold, PicklistCancel},
		PicklistInProgress: {PicklistRecordPick, PicklistHold, PicklistComplete, PicklistCancel},
		PicklistOnHold:     {PicklistResume, PicklistCancel},
		PicklistPicked:     {PicklistCancel},
	}, PicklistGuard{})

	_, err := PicklistMachine.Fire(PicklistInProgress, PicklistComplete, PicklistGuard{Unrecorded: 1})
	assert.True(t, apperror.IsInvalidTransition(err))

	_, err = PicklistMachine.Fire(PicklistPicked, PicklistCancel, PicklistGuard{ActiveDispatch: true})
	assert.True(t, apperror.IsInvalidTransition(err))

	to, err := PicklistMachine.Fire(PicklistCreated, PicklistRecordPick, PicklistGuard{})
	require.NoError(t, err)
	assert.Equal(t, PicklistInProgress, to)
}

func TestDispatchMachine(t *testing.T) {
	assertTable(t, DispatchMachine, map[DispatchStatus][]DispatchAction{
		DispatchCreated:    {DispatchShip, DispatchCancel},
		DispatchDispatched: {DispatchDepart, DispatchCancel},
		DispatchInTransit:  {DispatchTrack, DispatchDeliver, DispatchCancel},
	}, DispatchGuard{})
}
