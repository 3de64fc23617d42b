package pipeline

import (
	"context"
	"time"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/documents/sales"
	"orderflow/internal/domain/lifecycle"
)

// SalesLineInput is a sales order line with an optional warehouse.
type SalesLineInput struct {
	documents.LineInput
	WarehouseID id.ID
}

// SalesOrderInput creates a sales order.
type SalesOrderInput struct {
	CustomerID      id.ID
	DeliveryDate    *time.Time
	ShippingAddress string
	Comment         string
	Lines           []SalesLineInput
}

// PicklistOptions controls picklist generation.
type PicklistOptions struct {
	// DefaultWarehouseID is used for lines without a warehouse
	DefaultWarehouseID id.ID

	// SplitByWarehouse creates one picklist per warehouse instead of failing
	// with MULTIPLE_WAREHOUSES
	SplitByWarehouse bool
}

func salesNumbering(prefix string) numbering {
	return numbering{cfg: sales.NumberConfig(prefix), opts: sales.NumberOptions(prefix)}
}

// CreateSalesOrder creates a draft sales order.
func (s *Service) CreateSalesOrder(ctx context.Context, in SalesOrderInput) (*sales.SalesOrder, error) {
	if id.IsNil(in.CustomerID) {
		return nil, apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	customer, err := s.catalog.Customer(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	so := sales.NewSalesOrder(customer.Ref(), s.now())
	so.DeliveryDate = in.DeliveryDate
	so.ShippingAddress = in.ShippingAddress
	so.Comment = in.Comment

	inputs := make([]documents.LineInput, len(in.Lines))
	for i, l := range in.Lines {
		inputs[i] = l.LineInput
	}
	lines, err := s.newLines(ctx, inputs)
	if err != nil {
		return nil, err
	}
	for i, l := range lines {
		wh := in.Lines[i].WarehouseID
		if !id.IsNil(wh) {
			if _, err := s.catalog.Warehouse(ctx, wh); err != nil {
				return nil, err
			}
		}
		so.Lines = append(so.Lines, sales.SalesOrderLine{Line: l, WarehouseID: wh})
	}
	if err := so.Recalculate(); err != nil {
		return nil, err
	}

	cs := newChangeSet("create sales order")
	stageCreate(ctx, s, cs, s.stores.SalesOrders, so, salesNumbering(sales.SalesOrderPrefix))
	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return so, nil
}

// ConfirmSalesOrder confirms a draft order with at least one line.
func (s *Service) ConfirmSalesOrder(ctx context.Context, soID id.ID) (*sales.SalesOrder, error) {
	return transition(ctx, s, "confirm sales order", s.stores.SalesOrders, soID,
		func(so *sales.SalesOrder) (documents.Transition, error) {
			return so.Fire(lifecycle.SalesOrderConfirm, so.Guard(0, 0), s.now())
		})
}

// CancelSalesOrder cancels an order that is not yet delivered. Picklists and
// dispatches keep their own status.
func (s *Service) CancelSalesOrder(ctx context.Context, soID id.ID) (*sales.SalesOrder, error) {
	return transition(ctx, s, "cancel sales order", s.stores.SalesOrders, soID,
		func(so *sales.SalesOrder) (documents.Transition, error) {
			return so.Fire(lifecycle.SalesOrderCancel, so.Guard(0, 0), s.now())
		})
}

// CompleteSalesOrder completes a delivered order whose invoices are all paid.
func (s *Service) CompleteSalesOrder(ctx context.Context, soID id.ID) (*sales.SalesOrder, error) {
	invoices, err := children(ctx, s.stores.SalesInvoices, soID)
	if err != nil {
		return nil, err
	}
	active, unpaid := 0, 0
	for _, inv := range invoices {
		if !inv.Active() {
			continue
		}
		active++
		if !inv.Settled() {
			unpaid++
		}
	}
	return transition(ctx, s, "complete sales order", s.stores.SalesOrders, soID,
		func(so *sales.SalesOrder) (documents.Transition, error) {
			return so.Fire(lifecycle.SalesOrderComplete, so.Guard(active, unpaid), s.now())
		})
}

// GeneratePicklist creates picklists for the unpicked lines of an order. A
// draft order is confirmed in the same change set.
func (s *Service) GeneratePicklist(ctx context.Context, soID id.ID, opts PicklistOptions) ([]*sales.Picklist, error) {
	so, err := s.stores.SalesOrders.Get(ctx, soID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	cs := newChangeSet("generate picklist")

	switch so.Status {
	case lifecycle.SalesOrderConfirmed:
	case lifecycle.SalesOrderDraft:
		t, err := so.Fire(lifecycle.SalesOrderConfirm, so.Guard(0, 0), now)
		if err != nil {
			return nil, err
		}
		cs.record(so, t)
		stageUpdate(ctx, cs, s.stores.SalesOrders, so)
	default:
		return nil, apperror.NewInvalidTransition(so.Kind(), string(so.Status), "generate_picklist")
	}

	existing, err := children(ctx, s.stores.Picklists, soID)
	if err != nil {
		return nil, err
	}
	for _, pl := range existing {
		if pl.Picking() {
			return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "sales order already has an active picklist").
				WithDetail("picklistNo", pl.Number)
		}
	}

	fallback := opts.DefaultWarehouseID
	if id.IsNil(fallback) {
		fallback = s.defaultWarehouse
	}
	groups, err := so.WarehouseGroups(fallback)
	if err != nil {
		return nil, err
	}
	warehouses := sales.SortedWarehouses(groups)
	if len(warehouses) > 1 && !opts.SplitByWarehouse {
		names := make([]string, len(warehouses))
		for i, wh := range warehouses {
			names[i] = wh.String()
		}
		return nil, apperror.NewBusinessRule(apperror.CodeMultipleWarehouses, "order lines belong to several warehouses").
			WithDetail("warehouses", names)
	}

	picklists := make([]*sales.Picklist, 0, len(warehouses))
	for _, whID := range warehouses {
		wh, err := s.catalog.Warehouse(ctx, whID)
		if err != nil {
			return nil, err
		}
		pl := sales.NewPicklist(so, wh.Ref(), groups[whID], now)
		stageCreate(ctx, s, cs, s.stores.Picklists, pl, salesNumbering(sales.PicklistPrefix))
		picklists = append(picklists, pl)
	}

	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return picklists, nil
}

func (s *Service) firePicklist(ctx context.Context, plID id.ID, action lifecycle.PicklistAction) (*sales.Picklist, error) {
	return transition(ctx, s, string(action)+" picklist", s.stores.Picklists, plID,
		func(pl *sales.Picklist) (documents.Transition, error) {
			return pl.Fire(action, false, s.now())
		})
}

// StartPicklist moves a created picklist to in_progress.
func (s *Service) StartPicklist(ctx context.Context, plID id.ID) (*sales.Picklist, error) {
	return s.firePicklist(ctx, plID, lifecycle.PicklistStart)
}

// HoldPicklist puts picking on hold.
func (s *Service) HoldPicklist(ctx context.Context, plID id.ID) (*sales.Picklist, error) {
	return s.firePicklist(ctx, plID, lifecycle.PicklistHold)
}

// ResumePicklist resumes a held picklist.
func (s *Service) ResumePicklist(ctx context.Context, plID id.ID) (*sales.Picklist, error) {
	return s.firePicklist(ctx, plID, lifecycle.PicklistResume)
}

// RecordPick records the picked quantity of a line. Over-picks fail with
// OVER_PICK; partial picks are legal.
func (s *Service) RecordPick(ctx context.Context, plID, lineID id.ID, picked types.Quantity) (*sales.Picklist, error) {
	return transition(ctx, s, "record pick", s.stores.Picklists, plID,
		func(pl *sales.Picklist) (documents.Transition, error) {
			return pl.RecordPick(lineID, picked, s.now())
		})
}

// CompletePicklist marks a picklist picked, copies the picked quantities to
// the order, and moves the order to picked once none of its picklists is
// still being picked.
func (s *Service) CompletePicklist(ctx context.Context, plID id.ID) (*sales.Picklist, error) {
	pl, err := s.stores.Picklists.Get(ctx, plID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	t, err := pl.Fire(lifecycle.PicklistComplete, false, now)
	if err != nil {
		return nil, err
	}

	so, err := s.stores.SalesOrders.Get(ctx, pl.SalesOrderID)
	if err != nil {
		return nil, err
	}
	for lineID, q := range pl.PickedByOrderLine() {
		if err := so.AddPicked(lineID, q); err != nil {
			return nil, err
		}
	}
	so.Touch(now)

	cs := newChangeSet("complete picklist")
	cs.record(pl, t)
	stageUpdate(ctx, cs, s.stores.Picklists, pl)

	siblings, err := children(ctx, s.stores.Picklists, so.ID)
	if err != nil {
		return nil, err
	}
	allPicked := true
	for _, other := range siblings {
		if other.ID != pl.ID && other.Picking() {
			allPicked = false
		}
	}
	if allPicked && so.Status == lifecycle.SalesOrderConfirmed {
		st, err := so.Fire(lifecycle.SalesOrderMarkPicked, so.Guard(0, 0), now)
		if err != nil {
			return nil, err
		}
		cs.record(so, st)
	}
	stageUpdate(ctx, cs, s.stores.SalesOrders, so)

	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return pl, nil
}

func (s *Service) activeDispatch(ctx context.Context, plID id.ID) (*sales.Dispatch, error) {
	dispatches, err := children(ctx, s.stores.Dispatches, plID)
	if err != nil {
		return nil, err
	}
	for _, d := range dispatches {
		if d.Active() {
			return d, nil
		}
	}
	return nil, nil
}

// CancelPicklist cancels a picklist without an active dispatch. Quantities
// of a picked picklist are taken back from the order, and a picked order is
// reopened so the lines can be picked again.
func (s *Service) CancelPicklist(ctx context.Context, plID id.ID) (*sales.Picklist, error) {
	pl, err := s.stores.Picklists.Get(ctx, plID)
	if err != nil {
		return nil, err
	}
	d, err := s.activeDispatch(ctx, plID)
	if err != nil {
		return nil, err
	}

	wasPicked := pl.Status == lifecycle.PicklistPicked
	now := s.now()
	t, err := pl.Fire(lifecycle.PicklistCancel, d != nil, now)
	if err != nil {
		return nil, err
	}

	cs := newChangeSet("cancel picklist")
	cs.record(pl, t)
	stageUpdate(ctx, cs, s.stores.Picklists, pl)

	if wasPicked {
		so, err := s.stores.SalesOrders.Get(ctx, pl.SalesOrderID)
		if err != nil {
			return nil, err
		}
		for lineID, q := range pl.PickedByOrderLine() {
			if err := so.AddPicked(lineID, q.Neg()); err != nil {
				return nil, err
			}
		}
		so.Touch(now)
		if so.Status == lifecycle.SalesOrderPicked {
			st, err := so.Fire(lifecycle.SalesOrderReopen, so.Guard(0, 0), now)
			if err != nil {
				return nil, err
			}
			cs.record(so, st)
		}
		stageUpdate(ctx, cs, s.stores.SalesOrders, so)
	}

	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return pl, nil
}

// CreateDispatch creates the shipment of a picked picklist. A picklist has
// at most one non-cancelled dispatch.
func (s *Service) CreateDispatch(ctx context.Context, plID id.ID, carrier, trackingNumber string) (*sales.Dispatch, error) {
	pl, err := s.stores.Picklists.Get(ctx, plID)
	if err != nil {
		return nil, err
	}
	existing, err := s.activeDispatch(ctx, plID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflict("picklist already has an active dispatch").
			WithDetail("dispatchNo", existing.Number)
	}

	d, err := sales.NewDispatch(pl, carrier, trackingNumber, s.now())
	if err != nil {
		return nil, err
	}

	cs := newChangeSet("create dispatch")
	stageCreate(ctx, s, cs, s.stores.Dispatches, d, salesNumbering(sales.DispatchPrefix))
	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return d, nil
}

// ShipDispatch ships a created dispatch, advances the order's dispatched
// quantities and moves the order from picked to dispatched.
func (s *Service) ShipDispatch(ctx context.Context, dispatchID id.ID) (*sales.Dispatch, error) {
	d, err := s.stores.Dispatches.Get(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	so, err := s.stores.SalesOrders.Get(ctx, d.SalesOrderID)
	if err != nil {
		return nil, err
	}
	if so.Status == lifecycle.SalesOrderCancelled {
		return nil, apperror.NewInvalidTransition(so.Kind(), string(so.Status), "ship_dispatch")
	}

	now := s.now()
	t, err := d.Fire(lifecycle.DispatchShip, "", "", now)
	if err != nil {
		return nil, err
	}
	for _, l := range d.Lines {
		if err := so.AddDispatched(l.OrderLineID, l.Quantity); err != nil {
			return nil, err
		}
	}
	so.Touch(now)

	cs := newChangeSet("ship dispatch")
	cs.record(d, t)
	if so.Status == lifecycle.SalesOrderPicked {
		st, err := so.Fire(lifecycle.SalesOrderMarkDispatched, so.Guard(0, 0), now)
		if err != nil {
			return nil, err
		}
		cs.record(so, st)
	}
	stageUpdate(ctx, cs, s.stores.Dispatches, d)
	stageUpdate(ctx, cs, s.stores.SalesOrders, so)

	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return d, nil
}

// DepartDispatch records that the shipment left with the carrier.
func (s *Service) DepartDispatch(ctx context.Context, dispatchID id.ID, location string) (*sales.Dispatch, error) {
	return transition(ctx, s, "depart dispatch", s.stores.Dispatches, dispatchID,
		func(d *sales.Dispatch) (documents.Transition, error) {
			return d.Fire(lifecycle.DispatchDepart, location, "", s.now())
		})
}

// TrackDispatch appends a location update to an in-transit shipment.
func (s *Service) TrackDispatch(ctx context.Context, dispatchID id.ID, location, note string) (*sales.Dispatch, error) {
	return transition(ctx, s, "track dispatch", s.stores.Dispatches, dispatchID,
		func(d *sales.Dispatch) (documents.Transition, error) {
			return d.Fire(lifecycle.DispatchTrack, location, note, s.now())
		})
}

// DeliverDispatch marks a shipment delivered. The order moves from
// dispatched to delivered when every active dispatch of it is delivered; an
// order in any other status is left as it is.
func (s *Service) DeliverDispatch(ctx context.Context, dispatchID id.ID, note string) (*sales.Dispatch, error) {
	d, err := s.stores.Dispatches.Get(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	t, err := d.Fire(lifecycle.DispatchDeliver, "", note, now)
	if err != nil {
		return nil, err
	}

	cs := newChangeSet("deliver dispatch")
	cs.record(d, t)
	stageUpdate(ctx, cs, s.stores.Dispatches, d)

	so, err := s.stores.SalesOrders.Get(ctx, d.SalesOrderID)
	if err != nil {
		return nil, err
	}
	if so.Status == lifecycle.SalesOrderDispatched {
		pending, err := s.undelivered(ctx, so.ID, d.ID)
		if err != nil {
			return nil, err
		}
		if !pending {
			st, err := so.Fire(lifecycle.SalesOrderMarkDelivered, so.Guard(0, 0), now)
			if err != nil {
				return nil, err
			}
			cs.record(so, st)
			stageUpdate(ctx, cs, s.stores.SalesOrders, so)
		}
	}

	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return d, nil
}

// undelivered reports goods of the order, other than dispatch skip, that
// have not reached the customer: an active dispatch not yet delivered, or a
// picked picklist with no active dispatch.
func (s *Service) undelivered(ctx context.Context, soID, skip id.ID) (bool, error) {
	picklists, err := children(ctx, s.stores.Picklists, soID)
	if err != nil {
		return false, err
	}
	for _, pl := range picklists {
		if !pl.Active() {
			continue
		}
		dispatches, err := children(ctx, s.stores.Dispatches, pl.ID)
		if err != nil {
			return false, err
		}
		dispatched := false
		for _, other := range dispatches {
			if !other.Active() {
				continue
			}
			dispatched = true
			if other.ID != skip && other.Status != lifecycle.DispatchDelivered {
				return true, nil
			}
		}
		if !dispatched && pl.Status == lifecycle.PicklistPicked {
			return true, nil
		}
	}
	return false, nil
}

// CancelDispatch cancels a shipment before delivery. Quantities of a shipped
// dispatch are returned to the order; the order status is unchanged.
func (s *Service) CancelDispatch(ctx context.Context, dispatchID id.ID, note string) (*sales.Dispatch, error) {
	d, err := s.stores.Dispatches.Get(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	shipped := d.Shipped()
	now := s.now()
	t, err := d.Fire(lifecycle.DispatchCancel, "", note, now)
	if err != nil {
		return nil, err
	}

	cs := newChangeSet("cancel dispatch")
	cs.record(d, t)
	stageUpdate(ctx, cs, s.stores.Dispatches, d)

	if shipped {
		so, err := s.stores.SalesOrders.Get(ctx, d.SalesOrderID)
		if err != nil {
			return nil, err
		}
		for _, l := range d.Lines {
			if err := so.AddDispatched(l.OrderLineID, l.Quantity.Neg()); err != nil {
				return nil, err
			}
		}
		so.Touch(now)
		stageUpdate(ctx, cs, s.stores.SalesOrders, so)
	}

	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return d, nil
}
