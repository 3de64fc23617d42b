package purchasing

import (
	"context"
	"time"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/entity"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/lifecycle"
	"orderflow/internal/domain/reconcile"
)

// PurchaseOrder is a commitment to buy from one supplier.
type PurchaseOrder struct {
	entity.BaseDocument

	Status lifecycle.PurchaseOrderStatus `json:"status"`

	Supplier catalogs.Ref `json:"supplier"`

	// Optional source requisition
	RequisitionID     id.ID  `json:"requisitionId"`
	RequisitionNumber string `json:"requisitionNo,omitempty"`

	OrderDate    time.Time  `json:"orderDate"`
	ExpectedDate *time.Time `json:"expectedDate,omitempty"`

	Lines  []PurchaseOrderLine `json:"lines"`
	Totals reconcile.Totals    `json:"totals"`
}

// PurchaseOrderLine carries the cumulative quantities of completed receipts
// and of non-cancelled invoices.
type PurchaseOrderLine struct {
	documents.Line

	RequisitionLineID id.ID `json:"requisitionLineId"`

	ReceivedQuantity types.Quantity `json:"receivedQuantity"`
	AcceptedQuantity types.Quantity `json:"acceptedQuantity"`
	RejectedQuantity types.Quantity `json:"rejectedQuantity"`
	InvoicedQuantity types.Quantity `json:"invoicedQuantity"`
}

// Outstanding is the quantity still expected from the supplier.
func (l PurchaseOrderLine) Outstanding() types.Quantity {
	if l.ReceivedQuantity >= l.Quantity {
		return 0
	}
	return l.Quantity.Sub(l.ReceivedQuantity)
}

// Unbilled is the accepted quantity not yet on an invoice.
func (l PurchaseOrderLine) Unbilled() types.Quantity {
	if l.InvoicedQuantity >= l.AcceptedQuantity {
		return 0
	}
	return l.AcceptedQuantity.Sub(l.InvoicedQuantity)
}

// NewPurchaseOrder creates a draft order for supplier.
func NewPurchaseOrder(supplier catalogs.Ref, now time.Time) *PurchaseOrder {
	return &PurchaseOrder{
		BaseDocument: entity.NewBaseDocument(now),
		Status:       lifecycle.PurchaseOrderDraft,
		Supplier:     supplier,
		OrderDate:    now.UTC(),
		Lines:        make([]PurchaseOrderLine, 0),
	}
}

// LinkRequisition records r as the source of po.
func (po *PurchaseOrder) LinkRequisition(r *Requisition) {
	po.RequisitionID = r.ID
	po.RequisitionNumber = r.Number
}

func (po *PurchaseOrder) Kind() string       { return KindPurchaseOrder }
func (po *PurchaseOrder) StatusName() string { return string(po.Status) }
func (po *PurchaseOrder) ParentID() id.ID    { return po.RequisitionID }

// Recalculate renumbers lines and refreshes amounts and totals.
func (po *PurchaseOrder) Recalculate() error {
	documents.Renumber(po.Lines)
	totals, err := documents.Recalculate(po.Lines)
	if err != nil {
		return err
	}
	po.Totals = totals
	return nil
}

// Validate implements entity.Validatable.
func (po *PurchaseOrder) Validate(ctx context.Context) error {
	if po.Supplier.IsZero() {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if len(po.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for i, line := range po.Lines {
		if line.Item.IsZero() {
			return apperror.NewValidation("item is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if err := line.Line.Validate(); err != nil {
			return err
		}
		if err := reconcile.ValidateInspection(line.ReceivedQuantity, line.AcceptedQuantity, line.RejectedQuantity); err != nil {
			return err
		}
	}
	return nil
}

// Line returns the line with lineID.
func (po *PurchaseOrder) Line(lineID id.ID) (*PurchaseOrderLine, error) {
	if i := documents.IndexOf(po.Lines, lineID); i >= 0 {
		return &po.Lines[i], nil
	}
	return nil, documents.LineNotFound(KindPurchaseOrder, lineID)
}

// Guard builds the transition context from received quantities per order line.
func (po *PurchaseOrder) Guard(received map[id.ID]types.Quantity) lifecycle.PurchaseOrderGuard {
	g := lifecycle.PurchaseOrderGuard{Lines: make([]lifecycle.LineProgress, len(po.Lines))}
	for i, l := range po.Lines {
		g.Lines[i] = lifecycle.LineProgress{Ordered: l.Quantity, Received: received[l.LineID]}
	}
	return g
}

// Fire applies a status action with guard context g.
func (po *PurchaseOrder) Fire(action lifecycle.PurchaseOrderAction, g lifecycle.PurchaseOrderGuard, now time.Time) (documents.Transition, error) {
	return documents.Fire(lifecycle.PurchaseOrderMachine, po, &po.Status, action, g, now)
}

// ApplyReceipts recomputes cumulative received, accepted and rejected
// quantities from completed receipts and fires the matching receipt action.
func (po *PurchaseOrder) ApplyReceipts(receipts []*GoodsReceipt, now time.Time) (documents.Transition, error) {
	for i := range po.Lines {
		po.Lines[i].ReceivedQuantity = 0
		po.Lines[i].AcceptedQuantity = 0
		po.Lines[i].RejectedQuantity = 0
	}
	for _, gr := range receipts {
		if gr.PurchaseOrderID != po.ID || gr.Status != lifecycle.GoodsReceiptCompleted {
			continue
		}
		for _, rl := range gr.Lines {
			line, err := po.Line(rl.OrderLineID)
			if err != nil {
				return documents.Transition{}, err
			}
			line.ReceivedQuantity = line.ReceivedQuantity.Add(rl.ReceivedQuantity)
			line.AcceptedQuantity = line.AcceptedQuantity.Add(rl.AcceptedQuantity)
			line.RejectedQuantity = line.RejectedQuantity.Add(rl.RejectedQuantity)
		}
	}

	received := make(map[id.ID]types.Quantity, len(po.Lines))
	for _, l := range po.Lines {
		if err := reconcile.ValidateCumulativeReceipt(l.Quantity, l.ReceivedQuantity); err != nil {
			return documents.Transition{}, err
		}
		received[l.LineID] = l.ReceivedQuantity
	}
	g := po.Guard(received)
	return po.Fire(g.ReceiptAction(), g, now)
}

// Unbilled reports whether any accepted quantity is not yet invoiced.
func (po *PurchaseOrder) Unbilled() bool {
	for _, l := range po.Lines {
		if l.Unbilled().IsPositive() {
			return true
		}
	}
	return false
}

// AddInvoiced moves the invoiced quantity of a line by delta (negative on
// invoice cancellation). The result stays within [0, accepted].
func (po *PurchaseOrder) AddInvoiced(lineID id.ID, delta types.Quantity) error {
	line, err := po.Line(lineID)
	if err != nil {
		return err
	}
	next := line.InvoicedQuantity.Add(delta)
	if next.IsNegative() || next > line.AcceptedQuantity {
		return apperror.NewValidation("invoiced quantity out of range").
			WithDetail("lineId", lineID.String()).
			WithDetail("accepted", line.AcceptedQuantity.String()).
			WithDetail("invoiced", next.String())
	}
	line.InvoicedQuantity = next
	return nil
}

var _ entity.Validatable = (*PurchaseOrder)(nil)
