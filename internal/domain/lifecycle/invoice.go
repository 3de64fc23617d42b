package lifecycle

import (
	"time"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/types"
)

// InvoiceStatus is shared by purchase and sales invoices.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoicePending       InvoiceStatus = "pending"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

type InvoiceAction string

const (
	InvoiceIssue         InvoiceAction = "issue"
	InvoiceRecordPayment InvoiceAction = "record_payment"
	InvoiceCancel        InvoiceAction = "cancel"
)

// InvoiceGuard carries the amounts of a payment: Paid already includes it.
type InvoiceGuard struct {
	Total types.Money
	Paid  types.Money
}

// resolveIssue settles an invoice with nothing to pay when it is issued.
func resolveIssue(_ InvoiceStatus, g InvoiceGuard) (InvoiceStatus, error) {
	if g.Total.IsZero() {
		return InvoicePaid, nil
	}
	return InvoicePending, nil
}

func resolvePayment(from InvoiceStatus, g InvoiceGuard) (InvoiceStatus, error) {
	switch {
	case !g.Paid.IsPositive():
		return from, apperror.NewValidation("payment must be positive").
			WithDetail("paid", types.FormatMoney(g.Paid))
	case g.Paid.GreaterThan(g.Total):
		return from, apperror.NewValidation("payment exceeds invoice total").
			WithDetail("paid", types.FormatMoney(g.Paid)).
			WithDetail("total", types.FormatMoney(g.Total))
	case g.Paid.Equal(g.Total):
		return InvoicePaid, nil
	default:
		return InvoicePartiallyPaid, nil
	}
}

// InvoiceMachine: draft → pending → partially_paid | paid; cancel from draft or pending.
// A zero-total invoice goes from draft straight to paid on issue.
// Overdue is never stored by an action; see EffectiveInvoiceStatus.
var InvoiceMachine = NewMachine[InvoiceStatus, InvoiceAction, InvoiceGuard](
	"invoice",
	[]InvoiceStatus{InvoiceDraft, InvoicePending, InvoicePartiallyPaid, InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	[]InvoiceAction{InvoiceIssue, InvoiceRecordPayment, InvoiceCancel},
).
	On(InvoiceIssue, []InvoiceStatus{InvoiceDraft},
		Resolve(resolveIssue)).
	On(InvoiceRecordPayment, []InvoiceStatus{InvoicePending, InvoicePartiallyPaid, InvoiceOverdue},
		Resolve(resolvePayment)).
	On(InvoiceCancel, []InvoiceStatus{InvoiceDraft, InvoicePending},
		To[InvoiceStatus, InvoiceGuard](InvoiceCancelled)).
	Terminal(InvoicePaid, InvoiceCancelled)

// EffectiveInvoiceStatus derives overdue: an open invoice past its due date
// with an outstanding balance. Stored status is returned otherwise.
func EffectiveInvoiceStatus(stored InvoiceStatus, dueDate time.Time, total, paid types.Money, asOf time.Time) InvoiceStatus {
	if stored != InvoicePending && stored != InvoicePartiallyPaid {
		return stored
	}
	if dueDate.IsZero() || !asOf.After(dueDate) {
		return stored
	}
	if paid.LessThan(total) {
		return InvoiceOverdue
	}
	return stored
}

// StoredInvoiceStatus maps a reported status to the one that is persisted.
// Overdue reported by a collaborator is stored as pending or partially_paid.
func StoredInvoiceStatus(reported InvoiceStatus, paid types.Money) InvoiceStatus {
	if reported != InvoiceOverdue {
		return reported
	}
	if paid.IsPositive() {
		return InvoicePartiallyPaid
	}
	return InvoicePending
}
