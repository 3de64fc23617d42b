package sales

import (
	"context"
	"sort"
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

// SalesOrder is a customer order.
type SalesOrder struct {
	entity.BaseDocument

	Status lifecycle.SalesOrderStatus `json:"status"`

	Customer        catalogs.Ref `json:"customer"`
	OrderDate       time.Time    `json:"orderDate"`
	DeliveryDate    *time.Time   `json:"deliveryDate,omitempty"`
	ShippingAddress string       `json:"shippingAddress,omitempty"`

	Lines  []SalesOrderLine `json:"lines"`
	Totals reconcile.Totals `json:"totals"`
}

// SalesOrderLine tracks how much of the ordered quantity was picked,
// dispatched and invoiced.
type SalesOrderLine struct {
	documents.Line

	// WarehouseID is optional; picklist generation falls back to a default
	WarehouseID id.ID `json:"warehouseId"`

	PickedQuantity     types.Quantity `json:"pickedQuantity"`
	DispatchedQuantity types.Quantity `json:"dispatchedQuantity"`
	InvoicedQuantity   types.Quantity `json:"invoicedQuantity"`
}

// Unpicked is the ordered quantity not yet picked.
func (l SalesOrderLine) Unpicked() types.Quantity {
	if l.PickedQuantity >= l.Quantity {
		return 0
	}
	return l.Quantity.Sub(l.PickedQuantity)
}

// Unbilled is the dispatched quantity not yet invoiced.
func (l SalesOrderLine) Unbilled() types.Quantity {
	if l.InvoicedQuantity >= l.DispatchedQuantity {
		return 0
	}
	return l.DispatchedQuantity.Sub(l.InvoicedQuantity)
}

// NewSalesOrder creates a draft order for customer.
func NewSalesOrder(customer catalogs.Ref, now time.Time) *SalesOrder {
	return &SalesOrder{
		BaseDocument: entity.NewBaseDocument(now),
		Status:       lifecycle.SalesOrderDraft,
		Customer:     customer,
		OrderDate:    now.UTC(),
		Lines:        make([]SalesOrderLine, 0),
	}
}

func (so *SalesOrder) Kind() string       { return KindSalesOrder }
func (so *SalesOrder) StatusName() string { return string(so.Status) }
func (so *SalesOrder) ParentID() id.ID    { return id.Nil() }

// Recalculate renumbers lines and refreshes amounts and totals.
func (so *SalesOrder) Recalculate() error {
	documents.Renumber(so.Lines)
	totals, err := documents.Recalculate(so.Lines)
	if err != nil {
		return err
	}
	so.Totals = totals
	return nil
}

// Validate implements entity.Validatable.
func (so *SalesOrder) Validate(ctx context.Context) error {
	if so.Customer.IsZero() {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	for i, line := range so.Lines {
		if line.Item.IsZero() {
			return apperror.NewValidation("item is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if err := line.Line.Validate(); err != nil {
			return err
		}
		if err := reconcile.ValidatePickLine(line.Quantity, line.PickedQuantity); err != nil {
			return err
		}
	}
	return nil
}

// Line returns the line with lineID.
func (so *SalesOrder) Line(lineID id.ID) (*SalesOrderLine, error) {
	if i := documents.IndexOf(so.Lines, lineID); i >= 0 {
		return &so.Lines[i], nil
	}
	return nil, documents.LineNotFound(KindSalesOrder, lineID)
}

// Guard builds the transition context. invoices counts non-cancelled
// invoices of the order, unpaid those not yet paid.
func (so *SalesOrder) Guard(invoices, unpaid int) lifecycle.SalesOrderGuard {
	return lifecycle.SalesOrderGuard{LineCount: len(so.Lines), Invoices: invoices, Unpaid: unpaid}
}

// Fire applies a status action with guard context g.
func (so *SalesOrder) Fire(action lifecycle.SalesOrderAction, g lifecycle.SalesOrderGuard, now time.Time) (documents.Transition, error) {
	return documents.Fire(lifecycle.SalesOrderMachine, so, &so.Status, action, g, now)
}

// WarehouseGroups assigns every line with something left to pick to its
// warehouse, using fallback for lines without one. The result is keyed by
// warehouse and lists line indexes in order.
func (so *SalesOrder) WarehouseGroups(fallback id.ID) (map[id.ID][]int, error) {
	groups := make(map[id.ID][]int)
	for i, l := range so.Lines {
		if !l.Unpicked().IsPositive() {
			continue
		}
		wh := l.WarehouseID
		if id.IsNil(wh) {
			wh = fallback
		}
		if id.IsNil(wh) {
			return nil, apperror.NewValidation("no warehouse for line").
				WithDetail("field", "warehouseId").
				WithDetail("lineNo", l.LineNo)
		}
		groups[wh] = append(groups[wh], i)
	}
	if len(groups) == 0 {
		return nil, apperror.NewValidation("nothing left to pick").
			WithDetail("salesOrderId", so.ID.String())
	}
	return groups, nil
}

// SortedWarehouses returns the keys of groups in a stable order.
func SortedWarehouses(groups map[id.ID][]int) []id.ID {
	out := make([]id.ID, 0, len(groups))
	for wh := range groups {
		out = append(out, wh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// AddPicked adds picked quantity to a line.
func (so *SalesOrder) AddPicked(lineID id.ID, delta types.Quantity) error {
	line, err := so.Line(lineID)
	if err != nil {
		return err
	}
	next := line.PickedQuantity.Add(delta)
	if err := reconcile.ValidatePickLine(line.Quantity, next); err != nil {
		return err
	}
	line.PickedQuantity = next
	return nil
}

// AddDispatched moves the dispatched quantity of a line by delta (negative
// when a shipped dispatch is cancelled). The result stays within
// [invoiced, picked].
func (so *SalesOrder) AddDispatched(lineID id.ID, delta types.Quantity) error {
	line, err := so.Line(lineID)
	if err != nil {
		return err
	}
	next := line.DispatchedQuantity.Add(delta)
	if next < line.InvoicedQuantity || next > line.PickedQuantity {
		return apperror.NewValidation("dispatched quantity out of range").
			WithDetail("lineId", lineID.String()).
			WithDetail("picked", line.PickedQuantity.String()).
			WithDetail("dispatched", next.String())
	}
	line.DispatchedQuantity = next
	return nil
}

// AddInvoiced moves the invoiced quantity of a line by delta. The result
// stays within [0, dispatched].
func (so *SalesOrder) AddInvoiced(lineID id.ID, delta types.Quantity) error {
	line, err := so.Line(lineID)
	if err != nil {
		return err
	}
	next := line.InvoicedQuantity.Add(delta)
	if next.IsNegative() || next > line.DispatchedQuantity {
		return apperror.NewValidation("invoiced quantity out of range").
			WithDetail("lineId", lineID.String()).
			WithDetail("dispatched", line.DispatchedQuantity.String()).
			WithDetail("invoiced", next.String())
	}
	line.InvoicedQuantity = next
	return nil
}

// Unbilled reports whether any dispatched quantity is not yet invoiced.
func (so *SalesOrder) Unbilled() bool {
	for _, l := range so.Lines {
		if l.Unbilled().IsPositive() {
			return true
		}
	}
	return false
}

var _ entity.Validatable = (*SalesOrder)(nil)
