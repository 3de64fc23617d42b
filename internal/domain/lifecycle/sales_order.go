package lifecycle

// SalesOrderStatus is the closed status set of a sales order.
type SalesOrderStatus string

const (
	SalesOrderDraft      SalesOrderStatus = "draft"
	SalesOrderConfirmed  SalesOrderStatus = "confirmed"
	SalesOrderPicked     SalesOrderStatus = "picked"
	SalesOrderDispatched SalesOrderStatus = "dispatched"
	SalesOrderDelivered  SalesOrderStatus = "delivered"
	SalesOrderCompleted  SalesOrderStatus = "completed"
	SalesOrderCancelled  SalesOrderStatus = "cancelled"
)

type SalesOrderAction string

const (
	SalesOrderConfirm        SalesOrderAction = "confirm"
	SalesOrderMarkPicked     SalesOrderAction = "mark_picked"
	SalesOrderReopen         SalesOrderAction = "reopen"
	SalesOrderMarkDispatched SalesOrderAction = "mark_dispatched"
	SalesOrderMarkDelivered  SalesOrderAction = "mark_delivered"
	SalesOrderComplete       SalesOrderAction = "complete"
	SalesOrderCancel         SalesOrderAction = "cancel"
)

// SalesOrderGuard carries line and settlement counts.
type SalesOrderGuard struct {
	LineCount int

	// Invoices counts non-cancelled invoices; Unpaid those not yet paid
	Invoices int
	Unpaid   int
}

// SalesOrderMachine: draft → confirmed → picked → dispatched → delivered →
// completed. Cancel from any status before delivery. Reopen returns a picked
// order to confirmed when a picked picklist is cancelled.
var SalesOrderMachine = NewMachine[SalesOrderStatus, SalesOrderAction, SalesOrderGuard](
	"sales_order",
	[]SalesOrderStatus{
		SalesOrderDraft, SalesOrderConfirmed, SalesOrderPicked, SalesOrderDispatched,
		SalesOrderDelivered, SalesOrderCompleted, SalesOrderCancelled,
	},
	[]SalesOrderAction{
		SalesOrderConfirm, SalesOrderMarkPicked, SalesOrderReopen, SalesOrderMarkDispatched,
		SalesOrderMarkDelivered, SalesOrderComplete, SalesOrderCancel,
	},
).
	On(SalesOrderConfirm, []SalesOrderStatus{SalesOrderDraft},
		Guarded(SalesOrderConfirmed, func(g SalesOrderGuard) error {
			if g.LineCount == 0 {
				return Deny("sales order has no items")
			}
			return nil
		})).
	On(SalesOrderMarkPicked, []SalesOrderStatus{SalesOrderConfirmed},
		To[SalesOrderStatus, SalesOrderGuard](SalesOrderPicked)).
	On(SalesOrderReopen, []SalesOrderStatus{SalesOrderPicked},
		To[SalesOrderStatus, SalesOrderGuard](SalesOrderConfirmed)).
	On(SalesOrderMarkDispatched, []SalesOrderStatus{SalesOrderPicked},
		To[SalesOrderStatus, SalesOrderGuard](SalesOrderDispatched)).
	On(SalesOrderMarkDelivered, []SalesOrderStatus{SalesOrderDispatched},
		To[SalesOrderStatus, SalesOrderGuard](SalesOrderDelivered)).
	On(SalesOrderComplete, []SalesOrderStatus{SalesOrderDelivered},
		Guarded(SalesOrderCompleted, func(g SalesOrderGuard) error {
			if g.Invoices == 0 {
				return Deny("sales order has not been invoiced")
			}
			if g.Unpaid > 0 {
				return Deny("sales order has unsettled invoices")
			}
			return nil
		})).
	On(SalesOrderCancel, []SalesOrderStatus{SalesOrderDraft, SalesOrderConfirmed, SalesOrderPicked, SalesOrderDispatched},
		To[SalesOrderStatus, SalesOrderGuard](SalesOrderCancelled)).
	Terminal(SalesOrderCompleted, SalesOrderCancelled)
