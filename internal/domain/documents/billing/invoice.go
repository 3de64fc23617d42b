package billing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/entity"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/documents/sales"
	"orderflow/internal/domain/lifecycle"
	"orderflow/internal/domain/reconcile"
)

// Type tells purchase invoices (from a supplier) from sales invoices (to a customer).
type Type string

const (
	TypePurchase Type = "purchase"
	TypeSales    Type = "sales"
)

// Invoice bills the accepted (purchase) or dispatched (sales) quantities of
// one order.
type Invoice struct {
	entity.BaseDocument

	Status lifecycle.InvoiceStatus `json:"status"`
	Type   Type                    `json:"type"`

	// Supplier or customer
	Party catalogs.Ref `json:"party"`

	// Purchase or sales order
	SourceID     id.ID  `json:"sourceId"`
	SourceNumber string `json:"sourceNo"`

	IssueDate *time.Time `json:"issueDate,omitempty"`
	DueDate   time.Time  `json:"dueDate"`

	Lines  []InvoiceLine    `json:"lines"`
	Totals reconcile.Totals `json:"totals"`

	PaidAmount types.Money `json:"paidAmount"`
	Payments   []Payment   `json:"payments"`
}

// InvoiceLine bills part of a source order line.
type InvoiceLine struct {
	documents.Line
	SourceLineID id.ID `json:"sourceLineId"`
}

// Payment is one recorded payment.
type Payment struct {
	Amount    types.Money `json:"amount"`
	At        time.Time   `json:"at"`
	Reference string      `json:"reference,omitempty"`
}

func newInvoice(t Type, party catalogs.Ref, sourceID id.ID, sourceNumber string, dueDate, now time.Time) *Invoice {
	return &Invoice{
		BaseDocument: entity.NewBaseDocument(now),
		Status:       lifecycle.InvoiceDraft,
		Type:         t,
		Party:        party,
		SourceID:     sourceID,
		SourceNumber: sourceNumber,
		DueDate:      dueDate.UTC(),
		Lines:        make([]InvoiceLine, 0),
		PaidAmount:   decimal.Zero,
		Payments:     make([]Payment, 0),
	}
}

func (inv *Invoice) addLine(src documents.Line, qty types.Quantity) error {
	l, err := src.Derive(qty)
	if err != nil {
		return err
	}
	inv.Lines = append(inv.Lines, InvoiceLine{Line: l, SourceLineID: src.LineID})
	return nil
}

func (inv *Invoice) finish() (*Invoice, error) {
	if len(inv.Lines) == 0 {
		return nil, apperror.NewValidation("nothing to invoice").
			WithDetail("sourceId", inv.SourceID.String())
	}
	if err := inv.Recalculate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// FromPurchaseOrder drafts an invoice for the accepted quantity of po not
// yet invoiced. po is not modified; see Billed.
func FromPurchaseOrder(po *purchasing.PurchaseOrder, dueDate, now time.Time) (*Invoice, error) {
	inv := newInvoice(TypePurchase, po.Supplier, po.ID, po.Number, dueDate, now)
	for _, l := range po.Lines {
		if q := l.Unbilled(); q.IsPositive() {
			if err := inv.addLine(l.Line, q); err != nil {
				return nil, err
			}
		}
	}
	return inv.finish()
}

// FromSalesOrder drafts an invoice for the dispatched quantity of so not
// yet invoiced. so is not modified; see Billed.
func FromSalesOrder(so *sales.SalesOrder, dueDate, now time.Time) (*Invoice, error) {
	inv := newInvoice(TypeSales, so.Customer, so.ID, so.Number, dueDate, now)
	for _, l := range so.Lines {
		if q := l.Unbilled(); q.IsPositive() {
			if err := inv.addLine(l.Line, q); err != nil {
				return nil, err
			}
		}
	}
	return inv.finish()
}

// Kind is purchase_invoice or sales_invoice.
func (inv *Invoice) Kind() string {
	if inv.Type == TypePurchase {
		return KindPurchaseInvoice
	}
	return KindSalesInvoice
}

func (inv *Invoice) StatusName() string { return string(inv.Status) }
func (inv *Invoice) ParentID() id.ID    { return inv.SourceID }

// Billed returns the invoiced quantity per source line.
func (inv *Invoice) Billed() map[id.ID]types.Quantity {
	out := make(map[id.ID]types.Quantity, len(inv.Lines))
	for _, l := range inv.Lines {
		out[l.SourceLineID] = out[l.SourceLineID].Add(l.Quantity)
	}
	return out
}

// Recalculate renumbers lines and refreshes amounts and totals.
func (inv *Invoice) Recalculate() error {
	documents.Renumber(inv.Lines)
	totals, err := documents.Recalculate(inv.Lines)
	if err != nil {
		return err
	}
	inv.Totals = totals
	return nil
}

// Balance is the amount still to be paid.
func (inv *Invoice) Balance() types.Money {
	return inv.Totals.Total.Sub(inv.PaidAmount)
}

// Active reports an invoice that still bills its source.
func (inv *Invoice) Active() bool { return inv.Status != lifecycle.InvoiceCancelled }

// Settled reports a fully paid invoice.
func (inv *Invoice) Settled() bool { return inv.Status == lifecycle.InvoicePaid }

// EffectiveStatus is the stored status, or overdue when the invoice is open
// past its due date.
func (inv *Invoice) EffectiveStatus(asOf time.Time) lifecycle.InvoiceStatus {
	return lifecycle.EffectiveInvoiceStatus(inv.Status, inv.DueDate, inv.Totals.Total, inv.PaidAmount, asOf)
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if inv.Type != TypePurchase && inv.Type != TypeSales {
		return apperror.NewValidation("unknown invoice type").
			WithDetail("field", "type").
			WithDetail("value", string(inv.Type))
	}
	if inv.Party.IsZero() {
		return apperror.NewValidation("party is required").
			WithDetail("field", "party")
	}
	if inv.Status == lifecycle.InvoiceOverdue {
		return apperror.NewValidation("overdue is derived and never stored").
			WithDetail("field", "status")
	}
	if inv.PaidAmount.IsNegative() || inv.PaidAmount.GreaterThan(inv.Totals.Total) {
		return apperror.NewValidation("paid amount out of range").
			WithDetail("paid", types.FormatMoney(inv.PaidAmount)).
			WithDetail("total", types.FormatMoney(inv.Totals.Total))
	}
	return nil
}

// Fire applies issue or cancel. Payments go through RecordPayment.
func (inv *Invoice) Fire(action lifecycle.InvoiceAction, now time.Time) (documents.Transition, error) {
	g := lifecycle.InvoiceGuard{Total: inv.Totals.Total, Paid: inv.PaidAmount}
	t, err := documents.Fire(lifecycle.InvoiceMachine, inv, &inv.Status, action, g, now)
	if err != nil {
		return t, err
	}
	if action == lifecycle.InvoiceIssue {
		at := now.UTC()
		inv.IssueDate = &at
	}
	return t, nil
}

// RecordPayment adds a payment and moves the invoice to partially_paid or
// paid. Non-positive payments and overpayments fail with VALIDATION_ERROR.
func (inv *Invoice) RecordPayment(amount types.Money, reference string, now time.Time) (documents.Transition, error) {
	if !amount.IsPositive() {
		return documents.Transition{}, apperror.NewValidation("payment must be positive").
			WithDetail("amount", amount.String())
	}
	if _, err := types.ToMinor(amount, types.CurrencyPlaces); err != nil {
		if errors.Is(err, types.ErrPrecisionLoss) {
			return documents.Transition{}, apperror.NewValidation("payment has more than 2 decimal places").
				WithDetail("amount", amount.String())
		}
		return documents.Transition{}, apperror.NewValidation(err.Error())
	}

	paid := inv.PaidAmount.Add(amount)
	g := lifecycle.InvoiceGuard{Total: inv.Totals.Total, Paid: paid}
	t, err := documents.Fire(lifecycle.InvoiceMachine, inv, &inv.Status, lifecycle.InvoiceRecordPayment, g, now)
	if err != nil {
		return t, err
	}
	inv.PaidAmount = paid
	inv.Payments = append(inv.Payments, Payment{Amount: amount, At: now.UTC(), Reference: reference})
	return t, nil
}

var _ entity.Validatable = (*Invoice)(nil)
