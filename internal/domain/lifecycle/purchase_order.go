package lifecycle

import "orderflow/internal/core/types"

// PurchaseOrderStatus is the closed status set of a purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderPending           PurchaseOrderStatus = "pending"
	PurchaseOrderApproved          PurchaseOrderStatus = "approved"
	PurchaseOrderOrdered           PurchaseOrderStatus = "ordered"
	PurchaseOrderPartiallyReceived PurchaseOrderStatus = "partially_received"
	PurchaseOrderReceived          PurchaseOrderStatus = "received"
	PurchaseOrderCancelled         PurchaseOrderStatus = "cancelled"
)

type PurchaseOrderAction string

const (
	PurchaseOrderSubmit         PurchaseOrderAction = "submit"
	PurchaseOrderApprove        PurchaseOrderAction = "approve"
	PurchaseOrderConfirm        PurchaseOrderAction = "confirm"
	PurchaseOrderReceivePartial PurchaseOrderAction = "receive_partial"
	PurchaseOrderReceiveFull    PurchaseOrderAction = "receive_full"
	PurchaseOrderCancel         PurchaseOrderAction = "cancel"
)

// LineProgress is the ordered vs cumulative received quantity of one order line.
type LineProgress struct {
	Ordered  types.Quantity
	Received types.Quantity
}

// PurchaseOrderGuard carries receipt progress of every order line. Received
// counts every receipt that is not cancelled.
type PurchaseOrderGuard struct {
	Lines []LineProgress
}

// TotalReceived sums received quantities over all lines.
func (g PurchaseOrderGuard) TotalReceived() types.Quantity {
	var total types.Quantity
	for _, l := range g.Lines {
		total = total.Add(l.Received)
	}
	return total
}

// FullyReceived reports every line received up to its ordered quantity.
func (g PurchaseOrderGuard) FullyReceived() bool {
	if len(g.Lines) == 0 {
		return false
	}
	for _, l := range g.Lines {
		if l.Received < l.Ordered {
			return false
		}
	}
	return true
}

// ReceiptAction picks the action matching the receipt progress.
func (g PurchaseOrderGuard) ReceiptAction() PurchaseOrderAction {
	if g.FullyReceived() {
		return PurchaseOrderReceiveFull
	}
	return PurchaseOrderReceivePartial
}

var receivable = []PurchaseOrderStatus{PurchaseOrderOrdered, PurchaseOrderPartiallyReceived}

// PurchaseOrderMachine: draft → pending → approved → ordered →
// partially_received → received; cancel only while nothing is received.
var PurchaseOrderMachine = NewMachine[PurchaseOrderStatus, PurchaseOrderAction, PurchaseOrderGuard](
	"purchase_order",
	[]PurchaseOrderStatus{
		PurchaseOrderDraft, PurchaseOrderPending, PurchaseOrderApproved, PurchaseOrderOrdered,
		PurchaseOrderPartiallyReceived, PurchaseOrderReceived, PurchaseOrderCancelled,
	},
	[]PurchaseOrderAction{
		PurchaseOrderSubmit, PurchaseOrderApprove, PurchaseOrderConfirm,
		PurchaseOrderReceivePartial, PurchaseOrderReceiveFull, PurchaseOrderCancel,
	},
).
	On(PurchaseOrderSubmit, []PurchaseOrderStatus{PurchaseOrderDraft},
		To[PurchaseOrderStatus, PurchaseOrderGuard](PurchaseOrderPending)).
	On(PurchaseOrderApprove, []PurchaseOrderStatus{PurchaseOrderPending},
		To[PurchaseOrderStatus, PurchaseOrderGuard](PurchaseOrderApproved)).
	On(PurchaseOrderConfirm, []PurchaseOrderStatus{PurchaseOrderApproved},
		To[PurchaseOrderStatus, PurchaseOrderGuard](PurchaseOrderOrdered)).
	On(PurchaseOrderReceivePartial, receivable,
		Guarded(PurchaseOrderPartiallyReceived, func(g PurchaseOrderGuard) error {
			if !g.TotalReceived().IsPositive() {
				return Deny("nothing has been received")
			}
			if g.FullyReceived() {
				return Deny("every line is fully received")
			}
			return nil
		})).
	On(PurchaseOrderReceiveFull, receivable,
		Guarded(PurchaseOrderReceived, func(g PurchaseOrderGuard) error {
			if !g.FullyReceived() {
				return Deny("a line has received quantity below ordered quantity")
			}
			return nil
		})).
	On(PurchaseOrderCancel, []PurchaseOrderStatus{PurchaseOrderDraft, PurchaseOrderPending, PurchaseOrderApproved, PurchaseOrderOrdered},
		Guarded(PurchaseOrderCancelled, func(g PurchaseOrderGuard) error {
			if !g.TotalReceived().IsZero() {
				return Deny("goods have already been received against this order")
			}
			return nil
		})).
	Terminal(PurchaseOrderReceived, PurchaseOrderCancelled)

// CanReceive reports whether goods receipts may be recorded in status.
func CanReceive(status PurchaseOrderStatus) bool {
	return status == PurchaseOrderOrdered || status == PurchaseOrderPartiallyReceived
}
