package sales

import (
	"context"
	"encoding/json"
	"time"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/entity"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/lifecycle"
)

// Dispatch is the shipment of a picked picklist, with its delivery tracking.
type Dispatch struct {
	entity.BaseDocument

	Status lifecycle.DispatchStatus `json:"status"`

	PicklistID       id.ID        `json:"picklistId"`
	PicklistNumber   string       `json:"picklistNo"`
	SalesOrderID     id.ID        `json:"salesOrderId"`
	SalesOrderNumber string       `json:"salesOrderNo"`
	Customer         catalogs.Ref `json:"customer"`
	Warehouse        catalogs.Ref `json:"warehouse"`

	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`

	ShippedAt   *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`

	Lines []DispatchLine `json:"lines"`

	// append-only, see Tracking
	tracking []TrackingEvent
}

// DispatchLine is a shipped quantity of one order line.
type DispatchLine struct {
	LineID         id.ID          `json:"lineId"`
	LineNo         int            `json:"lineNo"`
	PicklistLineID id.ID          `json:"picklistLineId"`
	OrderLineID    id.ID          `json:"orderLineId"`
	Item           catalogs.Ref   `json:"item"`
	Quantity       types.Quantity `json:"quantity"`
}

// TrackingEvent is one entry of the delivery history.
type TrackingEvent struct {
	Seq      int                      `json:"seq"`
	Status   lifecycle.DispatchStatus `json:"status"`
	At       time.Time                `json:"at"`
	Location string                   `json:"location,omitempty"`
	Note     string                   `json:"note,omitempty"`
}

// NewDispatch ships the picked lines of pl. Lines with nothing picked are left out.
func NewDispatch(pl *Picklist, carrier, trackingNumber string, now time.Time) (*Dispatch, error) {
	if pl.Status != lifecycle.PicklistPicked {
		return nil, apperror.NewInvalidTransition(KindPicklist, string(pl.Status), "dispatch")
	}

	d := &Dispatch{
		BaseDocument:     entity.NewBaseDocument(now),
		Status:           lifecycle.DispatchCreated,
		PicklistID:       pl.ID,
		PicklistNumber:   pl.Number,
		SalesOrderID:     pl.SalesOrderID,
		SalesOrderNumber: pl.SalesOrderNumber,
		Customer:         pl.Customer,
		Warehouse:        pl.Warehouse,
		Carrier:          carrier,
		TrackingNumber:   trackingNumber,
		Lines:            make([]DispatchLine, 0, len(pl.Lines)),
	}
	for _, l := range pl.Lines {
		if !l.Picked().IsPositive() {
			continue
		}
		d.Lines = append(d.Lines, DispatchLine{
			LineID:         id.New(),
			LineNo:         len(d.Lines) + 1,
			PicklistLineID: l.LineID,
			OrderLineID:    l.OrderLineID,
			Item:           l.Item,
			Quantity:       l.Picked(),
		})
	}
	if len(d.Lines) == 0 {
		return nil, apperror.NewValidation("nothing was picked").
			WithDetail("picklistId", pl.ID.String())
	}

	d.appendEvent(now, "", "")
	return d, nil
}

func (d *Dispatch) Kind() string       { return KindDispatch }
func (d *Dispatch) StatusName() string { return string(d.Status) }
func (d *Dispatch) ParentID() id.ID    { return d.PicklistID }

// Active reports a dispatch that still holds the picklist.
func (d *Dispatch) Active() bool { return d.Status != lifecycle.DispatchCancelled }

// Shipped reports whether goods have left the warehouse.
func (d *Dispatch) Shipped() bool {
	switch d.Status {
	case lifecycle.DispatchDispatched, lifecycle.DispatchInTransit, lifecycle.DispatchDelivered:
		return true
	}
	return false
}

// Tracking returns a copy of the delivery history.
func (d *Dispatch) Tracking() []TrackingEvent {
	out := make([]TrackingEvent, len(d.tracking))
	copy(out, d.tracking)
	return out
}

func (d *Dispatch) appendEvent(now time.Time, location, note string) {
	d.tracking = append(d.tracking, TrackingEvent{
		Seq:      len(d.tracking) + 1,
		Status:   d.Status,
		At:       now.UTC(),
		Location: location,
		Note:     note,
	})
}

// Fire applies a status action and appends a tracking event for it.
func (d *Dispatch) Fire(action lifecycle.DispatchAction, location, note string, now time.Time) (documents.Transition, error) {
	if action == lifecycle.DispatchTrack && location == "" {
		return documents.Transition{}, apperror.NewValidation("location is required").
			WithDetail("field", "location")
	}
	t, err := documents.Fire(lifecycle.DispatchMachine, d, &d.Status, action, lifecycle.DispatchGuard{}, now)
	if err != nil {
		return t, err
	}

	at := now.UTC()
	switch action {
	case lifecycle.DispatchShip:
		d.ShippedAt = &at
	case lifecycle.DispatchDeliver:
		d.DeliveredAt = &at
	}
	d.appendEvent(now, location, note)
	return t, nil
}

// Validate implements entity.Validatable.
func (d *Dispatch) Validate(ctx context.Context) error {
	if id.IsNil(d.PicklistID) {
		return apperror.NewValidation("picklist is required").
			WithDetail("field", "picklistId")
	}
	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for i, ev := range d.tracking {
		if ev.Seq != i+1 {
			return apperror.NewValidation("tracking history is out of sequence").
				WithDetail("seq", ev.Seq)
		}
	}
	return nil
}

type dispatchAlias Dispatch

type dispatchJSON struct {
	*dispatchAlias
	Tracking []TrackingEvent `json:"tracking"`
}

// MarshalJSON includes the tracking history.
func (d *Dispatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(dispatchJSON{dispatchAlias: (*dispatchAlias)(d), Tracking: d.Tracking()})
}

// UnmarshalJSON restores the tracking history.
func (d *Dispatch) UnmarshalJSON(data []byte) error {
	aux := dispatchJSON{dispatchAlias: (*dispatchAlias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.tracking = aux.Tracking
	return nil
}

var _ entity.Validatable = (*Dispatch)(nil)
