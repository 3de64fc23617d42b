package pipeline

import (
	"context"
	"time"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/documents/billing"
	"orderflow/internal/domain/lifecycle"
	"orderflow/pkg/logger"
)

func invoiceNumbering(t billing.Type) numbering {
	return numbering{cfg: billing.NumberConfig(t), opts: billing.NumberOptions()}
}

// paymentTerms looks up the payment terms of an invoiced party. A party that
// left the catalog gets the default terms; any other lookup error fails the
// invoice.
func paymentTerms(ctx context.Context, partyID id.ID, lookup func() (int, error)) (int, error) {
	days, err := lookup()
	switch {
	case err == nil:
		return days, nil
	case apperror.IsNotFound(err):
		logger.Warn(ctx, "party not in catalog, default payment terms apply",
			"party_id", partyID.String())
		return 0, nil
	default:
		return 0, err
	}
}

// CreatePurchaseInvoice bills the accepted, not yet invoiced quantities of a
// purchase order. A zero dueDate applies the supplier's payment terms.
func (s *Service) CreatePurchaseInvoice(ctx context.Context, poID id.ID, dueDate time.Time) (*billing.Invoice, error) {
	po, err := s.stores.PurchaseOrders.Get(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.Status == lifecycle.PurchaseOrderCancelled {
		return nil, apperror.NewInvalidTransition(po.Kind(), string(po.Status), "invoice")
	}

	terms, err := paymentTerms(ctx, po.Supplier.ID, func() (int, error) {
		supplier, err := s.catalog.Supplier(ctx, po.Supplier.ID)
		return supplier.PaymentTermsDays, err
	})
	if err != nil {
		return nil, err
	}

	inv, err := billing.FromPurchaseOrder(po, s.dueDate(dueDate, terms), s.now())
	if err != nil {
		return nil, err
	}
	for lineID, q := range inv.Billed() {
		if err := po.AddInvoiced(lineID, q); err != nil {
			return nil, err
		}
	}
	po.Touch(s.now())

	cs := newChangeSet("create purchase invoice")
	stageCreate(ctx, s, cs, s.stores.PurchaseInvoices, inv, invoiceNumbering(billing.TypePurchase))
	stageUpdate(ctx, cs, s.stores.PurchaseOrders, po)
	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return inv, nil
}

// CreateSalesInvoice bills the dispatched, not yet invoiced quantities of a
// dispatched or delivered sales order.
func (s *Service) CreateSalesInvoice(ctx context.Context, soID id.ID, dueDate time.Time) (*billing.Invoice, error) {
	so, err := s.stores.SalesOrders.Get(ctx, soID)
	if err != nil {
		return nil, err
	}
	if so.Status != lifecycle.SalesOrderDispatched && so.Status != lifecycle.SalesOrderDelivered {
		return nil, apperror.NewInvalidTransition(so.Kind(), string(so.Status), "invoice")
	}

	terms, err := paymentTerms(ctx, so.Customer.ID, func() (int, error) {
		customer, err := s.catalog.Customer(ctx, so.Customer.ID)
		return customer.PaymentTermsDays, err
	})
	if err != nil {
		return nil, err
	}

	inv, err := billing.FromSalesOrder(so, s.dueDate(dueDate, terms), s.now())
	if err != nil {
		return nil, err
	}
	for lineID, q := range inv.Billed() {
		if err := so.AddInvoiced(lineID, q); err != nil {
			return nil, err
		}
	}
	so.Touch(s.now())

	cs := newChangeSet("create sales invoice")
	stageCreate(ctx, s, cs, s.stores.SalesInvoices, inv, invoiceNumbering(billing.TypeSales))
	stageUpdate(ctx, cs, s.stores.SalesOrders, so)
	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return inv, nil
}

// IssueInvoice moves a draft invoice to pending, or to paid when its total
// is zero.
func (s *Service) IssueInvoice(ctx context.Context, t billing.Type, invID id.ID) (*billing.Invoice, error) {
	return transition(ctx, s, "issue invoice", s.stores.invoices(t), invID,
		func(inv *billing.Invoice) (documents.Transition, error) {
			return inv.Fire(lifecycle.InvoiceIssue, s.now())
		})
}

// RecordPayment adds a payment to an issued invoice.
func (s *Service) RecordPayment(ctx context.Context, t billing.Type, invID id.ID, amount types.Money, reference string) (*billing.Invoice, error) {
	return transition(ctx, s, "record payment", s.stores.invoices(t), invID,
		func(inv *billing.Invoice) (documents.Transition, error) {
			return inv.RecordPayment(amount, reference, s.now())
		})
}

// CancelInvoice cancels a draft or pending invoice and returns its
// quantities to the source order lines.
func (s *Service) CancelInvoice(ctx context.Context, t billing.Type, invID id.ID) (*billing.Invoice, error) {
	store := s.stores.invoices(t)
	inv, err := store.Get(ctx, invID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	tr, err := inv.Fire(lifecycle.InvoiceCancel, now)
	if err != nil {
		return nil, err
	}

	cs := newChangeSet("cancel invoice")
	cs.record(inv, tr)
	stageUpdate(ctx, cs, store, inv)

	switch inv.Type {
	case billing.TypePurchase:
		po, err := s.stores.PurchaseOrders.Get(ctx, inv.SourceID)
		if err != nil {
			return nil, err
		}
		for lineID, q := range inv.Billed() {
			if err := po.AddInvoiced(lineID, q.Neg()); err != nil {
				return nil, err
			}
		}
		po.Touch(now)
		stageUpdate(ctx, cs, s.stores.PurchaseOrders, po)
	case billing.TypeSales:
		so, err := s.stores.SalesOrders.Get(ctx, inv.SourceID)
		if err != nil {
			return nil, err
		}
		for lineID, q := range inv.Billed() {
			if err := so.AddInvoiced(lineID, q.Neg()); err != nil {
				return nil, err
			}
		}
		so.Touch(now)
		stageUpdate(ctx, cs, s.stores.SalesOrders, so)
	}

	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return inv, nil
}
