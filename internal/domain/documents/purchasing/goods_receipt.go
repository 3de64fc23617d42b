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

// GoodsReceipt records goods arriving against a purchase order (GRN).
type GoodsReceipt struct {
	entity.BaseDocument

	Status lifecycle.GoodsReceiptStatus `json:"status"`

	PurchaseOrderID     id.ID        `json:"purchaseOrderId"`
	PurchaseOrderNumber string       `json:"purchaseOrderNo"`
	Supplier            catalogs.Ref `json:"supplier"`

	ReceivedDate time.Time `json:"receivedDate"`

	Lines []GoodsReceiptLine `json:"lines"`
}

// GoodsReceiptLine is the received quantity of one order line and its
// inspection outcome.
type GoodsReceiptLine struct {
	LineID      id.ID        `json:"lineId"`
	LineNo      int          `json:"lineNo"`
	OrderLineID id.ID        `json:"orderLineId"`
	Item        catalogs.Ref `json:"item"`

	OrderedQuantity  types.Quantity `json:"orderedQuantity"`
	ReceivedQuantity types.Quantity `json:"receivedQuantity"`
	AcceptedQuantity types.Quantity `json:"acceptedQuantity"`
	RejectedQuantity types.Quantity `json:"rejectedQuantity"`

	QualityStatus lifecycle.QualityStatus `json:"qualityStatus"`
	Notes         string                  `json:"notes,omitempty"`
}

// ReceiptLineInput is one line of a receipt being recorded. Accepted and
// Rejected are optional; when either is set the line is inspected at once and
// the missing one is the remainder of Received.
type ReceiptLineInput struct {
	OrderLineID id.ID
	Received    types.Quantity
	Accepted    *types.Quantity
	Rejected    *types.Quantity
	Notes       string
}

// inspection completes a half-given inspection from Received. A negative
// remainder is left for line validation to reject.
func (in ReceiptLineInput) inspection() (accepted, rejected types.Quantity) {
	switch {
	case in.Accepted == nil:
		return in.Received.Sub(*in.Rejected), *in.Rejected
	case in.Rejected == nil:
		return *in.Accepted, in.Received.Sub(*in.Accepted)
	default:
		return *in.Accepted, *in.Rejected
	}
}

// QualityOf derives the inspection outcome of accepted/rejected quantities.
func QualityOf(accepted, rejected types.Quantity) lifecycle.QualityStatus {
	switch {
	case rejected.IsZero():
		return lifecycle.QualityPassed
	case accepted.IsZero():
		return lifecycle.QualityFailed
	default:
		return lifecycle.QualityPartial
	}
}

// ReceivedByLine sums received quantities per order line over the receipts
// of po for which counted returns true.
func ReceivedByLine(receipts []*GoodsReceipt, counted func(*GoodsReceipt) bool) map[id.ID]types.Quantity {
	out := make(map[id.ID]types.Quantity)
	for _, gr := range receipts {
		if !counted(gr) {
			continue
		}
		for _, l := range gr.Lines {
			out[l.OrderLineID] = out[l.OrderLineID].Add(l.ReceivedQuantity)
		}
	}
	return out
}

// NotCancelled counts every receipt still holding quantity against its order.
func NotCancelled(gr *GoodsReceipt) bool { return gr.Status != lifecycle.GoodsReceiptCancelled }

// NewGoodsReceipt validates lines against po and the quantities already
// received by other non-cancelled receipts (prior), and creates a pending
// receipt. Nothing is modified on error.
func NewGoodsReceipt(po *PurchaseOrder, inputs []ReceiptLineInput, prior map[id.ID]types.Quantity, now time.Time) (*GoodsReceipt, error) {
	if !lifecycle.CanReceive(po.Status) {
		return nil, apperror.NewInvalidTransition(KindPurchaseOrder, string(po.Status), "receive_goods")
	}
	if len(inputs) == 0 {
		return nil, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	gr := &GoodsReceipt{
		BaseDocument:        entity.NewBaseDocument(now),
		Status:              lifecycle.GoodsReceiptPending,
		PurchaseOrderID:     po.ID,
		PurchaseOrderNumber: po.Number,
		Supplier:            po.Supplier,
		ReceivedDate:        now.UTC(),
		Lines:               make([]GoodsReceiptLine, 0, len(inputs)),
	}

	seen := make(map[id.ID]bool, len(inputs))
	for i, in := range inputs {
		orderLine, err := po.Line(in.OrderLineID)
		if err != nil {
			return nil, err
		}
		if seen[in.OrderLineID] {
			return nil, apperror.NewValidation("order line appears twice").
				WithDetail("lineNo", i+1).
				WithDetail("orderLineId", in.OrderLineID.String())
		}
		seen[in.OrderLineID] = true

		if !in.Received.IsPositive() {
			return nil, apperror.NewValidation("received quantity must be positive").
				WithDetail("lineNo", i+1).
				WithDetail("received", in.Received.String())
		}
		cumulative := prior[in.OrderLineID].Add(in.Received)
		if err := reconcile.ValidateCumulativeReceipt(orderLine.Quantity, cumulative); err != nil {
			return nil, err
		}

		line := GoodsReceiptLine{
			LineID:           id.New(),
			LineNo:           i + 1,
			OrderLineID:      orderLine.LineID,
			Item:             orderLine.Item,
			OrderedQuantity:  orderLine.Quantity,
			ReceivedQuantity: in.Received,
			QualityStatus:    lifecycle.QualityPending,
			Notes:            in.Notes,
		}
		if in.Accepted != nil || in.Rejected != nil {
			accepted, rejected := in.inspection()
			if err := line.inspect(accepted, rejected); err != nil {
				return nil, err
			}
		}
		gr.Lines = append(gr.Lines, line)
	}

	return gr, nil
}

func (l *GoodsReceiptLine) inspect(accepted, rejected types.Quantity) error {
	if err := reconcile.ValidateReceiptLine(l.ReceivedQuantity, l.ReceivedQuantity, accepted, rejected); err != nil {
		return err
	}
	l.AcceptedQuantity = accepted
	l.RejectedQuantity = rejected
	l.QualityStatus = QualityOf(accepted, rejected)
	return nil
}

func (gr *GoodsReceipt) Kind() string       { return KindGoodsReceipt }
func (gr *GoodsReceipt) StatusName() string { return string(gr.Status) }
func (gr *GoodsReceipt) ParentID() id.ID    { return gr.PurchaseOrderID }

// Validate implements entity.Validatable.
func (gr *GoodsReceipt) Validate(ctx context.Context) error {
	if id.IsNil(gr.PurchaseOrderID) {
		return apperror.NewValidation("purchase order is required").
			WithDetail("field", "purchaseOrderId")
	}
	if len(gr.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for _, l := range gr.Lines {
		if err := reconcile.ValidateCumulativeReceipt(l.OrderedQuantity, l.ReceivedQuantity); err != nil {
			return err
		}
		if l.QualityStatus.Resolved() {
			if err := reconcile.ValidateInspection(l.ReceivedQuantity, l.AcceptedQuantity, l.RejectedQuantity); err != nil {
				return err
			}
		}
	}
	return nil
}

// Inspect records accepted and rejected quantities of a line. Inspection is
// allowed until the receipt is completed or cancelled.
func (gr *GoodsReceipt) Inspect(lineID id.ID, accepted, rejected types.Quantity, now time.Time) error {
	if gr.Status != lifecycle.GoodsReceiptPending && gr.Status != lifecycle.GoodsReceiptInProgress {
		return apperror.NewInvalidTransition(KindGoodsReceipt, string(gr.Status), "inspect")
	}
	for i := range gr.Lines {
		if gr.Lines[i].LineID != lineID {
			continue
		}
		// work on a copy so a mismatch leaves the line as it was
		line := gr.Lines[i]
		if err := line.inspect(accepted, rejected); err != nil {
			return err
		}
		gr.Lines[i] = line
		gr.Touch(now)
		return nil
	}
	return documents.LineNotFound(KindGoodsReceipt, lineID)
}

// Totals returns received, accepted and rejected quantities over all lines.
func (gr *GoodsReceipt) Totals() (received, accepted, rejected types.Quantity) {
	for _, l := range gr.Lines {
		received = received.Add(l.ReceivedQuantity)
		accepted = accepted.Add(l.AcceptedQuantity)
		rejected = rejected.Add(l.RejectedQuantity)
	}
	return received, accepted, rejected
}

func (gr *GoodsReceipt) guard() lifecycle.GoodsReceiptGuard {
	g := lifecycle.GoodsReceiptGuard{LineCount: len(gr.Lines)}
	for _, l := range gr.Lines {
		if !l.QualityStatus.Resolved() ||
			reconcile.ValidateInspection(l.ReceivedQuantity, l.AcceptedQuantity, l.RejectedQuantity) != nil {
			g.Unresolved++
		}
	}
	return g
}

// Fire applies a status action.
func (gr *GoodsReceipt) Fire(action lifecycle.GoodsReceiptAction, now time.Time) (documents.Transition, error) {
	return documents.Fire(lifecycle.GoodsReceiptMachine, gr, &gr.Status, action, gr.guard(), now)
}

var _ entity.Validatable = (*GoodsReceipt)(nil)
