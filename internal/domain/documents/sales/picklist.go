package sales

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

// Picklist instructs one warehouse to pick the lines of a sales order.
type Picklist struct {
	entity.BaseDocument

	Status lifecycle.PicklistStatus `json:"status"`

	SalesOrderID     id.ID        `json:"salesOrderId"`
	SalesOrderNumber string       `json:"salesOrderNo"`
	Customer         catalogs.Ref `json:"customer"`
	Warehouse        catalogs.Ref `json:"warehouse"`

	Lines []PicklistLine `json:"lines"`
}

// PicklistLine is one order line to pick. PickedQuantity stays nil until a
// pick is recorded; zero is a recorded "nothing found".
type PicklistLine struct {
	LineID      id.ID        `json:"lineId"`
	LineNo      int          `json:"lineNo"`
	OrderLineID id.ID        `json:"orderLineId"`
	Item        catalogs.Ref `json:"item"`

	OrderedQuantity types.Quantity  `json:"orderedQuantity"`
	PickedQuantity  *types.Quantity `json:"pickedQuantity"`
	PickedAt        *time.Time      `json:"pickedAt,omitempty"`
}

// Picked returns the recorded quantity, zero when nothing is recorded.
func (l PicklistLine) Picked() types.Quantity {
	if l.PickedQuantity == nil {
		return 0
	}
	return *l.PickedQuantity
}

// NewPicklist creates a picklist at warehouse for the order lines at indexes.
// Each line asks for the quantity not picked yet.
func NewPicklist(so *SalesOrder, warehouse catalogs.Ref, indexes []int, now time.Time) *Picklist {
	pl := &Picklist{
		BaseDocument:     entity.NewBaseDocument(now),
		Status:           lifecycle.PicklistCreated,
		SalesOrderID:     so.ID,
		SalesOrderNumber: so.Number,
		Customer:         so.Customer,
		Warehouse:        warehouse,
		Lines:            make([]PicklistLine, 0, len(indexes)),
	}
	for _, i := range indexes {
		ol := so.Lines[i]
		pl.Lines = append(pl.Lines, PicklistLine{
			LineID:          id.New(),
			LineNo:          len(pl.Lines) + 1,
			OrderLineID:     ol.LineID,
			Item:            ol.Item,
			OrderedQuantity: ol.Unpicked(),
		})
	}
	return pl
}

func (pl *Picklist) Kind() string       { return KindPicklist }
func (pl *Picklist) StatusName() string { return string(pl.Status) }
func (pl *Picklist) ParentID() id.ID    { return pl.SalesOrderID }

// Active reports a picklist that still holds the order.
func (pl *Picklist) Active() bool { return pl.Status != lifecycle.PicklistCancelled }

// Picking reports a picklist whose lines are still being picked.
func (pl *Picklist) Picking() bool {
	return pl.Active() && pl.Status != lifecycle.PicklistPicked
}

// Validate implements entity.Validatable.
func (pl *Picklist) Validate(ctx context.Context) error {
	if id.IsNil(pl.SalesOrderID) {
		return apperror.NewValidation("sales order is required").
			WithDetail("field", "salesOrderId")
	}
	if pl.Warehouse.IsZero() {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if len(pl.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for _, l := range pl.Lines {
		if err := reconcile.ValidatePickLine(l.OrderedQuantity, l.Picked()); err != nil {
			return err
		}
	}
	return nil
}

func (pl *Picklist) guard(activeDispatch bool) lifecycle.PicklistGuard {
	g := lifecycle.PicklistGuard{ActiveDispatch: activeDispatch}
	for _, l := range pl.Lines {
		if l.PickedQuantity == nil {
			g.Unrecorded++
		}
	}
	return g
}

// Fire applies a status action. activeDispatch tells the cancel guard
// whether a non-cancelled dispatch exists for the picklist.
func (pl *Picklist) Fire(action lifecycle.PicklistAction, activeDispatch bool, now time.Time) (documents.Transition, error) {
	return documents.Fire(lifecycle.PicklistMachine, pl, &pl.Status, action, pl.guard(activeDispatch), now)
}

// RecordPick sets the picked quantity of a line. A pick above the ordered
// quantity fails with OVER_PICK and changes nothing; a partial pick is legal.
func (pl *Picklist) RecordPick(lineID id.ID, picked types.Quantity, now time.Time) (documents.Transition, error) {
	i := -1
	for j := range pl.Lines {
		if pl.Lines[j].LineID == lineID {
			i = j
			break
		}
	}
	if i < 0 {
		return documents.Transition{}, documents.LineNotFound(KindPicklist, lineID)
	}
	if !lifecycle.PicklistMachine.Can(pl.Status, lifecycle.PicklistRecordPick) {
		return documents.Transition{}, apperror.NewInvalidTransition(KindPicklist, string(pl.Status), string(lifecycle.PicklistRecordPick))
	}
	if err := reconcile.ValidatePickLine(pl.Lines[i].OrderedQuantity, picked); err != nil {
		return documents.Transition{}, err
	}

	t, err := pl.Fire(lifecycle.PicklistRecordPick, false, now)
	if err != nil {
		return t, err
	}
	at := now.UTC()
	pl.Lines[i].PickedQuantity = &picked
	pl.Lines[i].PickedAt = &at
	return t, nil
}

// PickedByOrderLine returns recorded quantities keyed by order line.
func (pl *Picklist) PickedByOrderLine() map[id.ID]types.Quantity {
	out := make(map[id.ID]types.Quantity, len(pl.Lines))
	for _, l := range pl.Lines {
		out[l.OrderLineID] = out[l.OrderLineID].Add(l.Picked())
	}
	return out
}

var _ entity.Validatable = (*Picklist)(nil)
