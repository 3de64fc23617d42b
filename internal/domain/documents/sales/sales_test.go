package sales

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/lifecycle"
)

var now = time.Date(2026, 5, 11, 14, 30, 0, 0, time.UTC)

func confirmedOrder(t *testing.T, quantities ...int64) *SalesOrder {
	t.Helper()
	so := NewSalesOrder(catalogs.Ref{ID: id.New(), Code: "CUST-1"}, now)
	so.Number = "SO-2026-00001"
	for _, q := range quantities {
		l := SalesOrderLine{Line: documents.Line{LineID: id.New(), Item: catalogs.Ref{ID: id.New()}}}
		l.Quantity = types.NewQuantity(q)
		l.UnitPrice = types.MustMoney("10")
		so.Lines = append(so.Lines, l)
	}
	require.NoError(t, so.Recalculate())
	_, err := so.Fire(lifecycle.SalesOrderConfirm, so.Guard(0, 0), now)
	require.NoError(t, err)
	return so
}

func TestSalesOrder_ConfirmNeedsLines(t *testing.T) {
	so := NewSalesOrder(catalogs.Ref{ID: id.New()}, now)
	_, err := so.Fire(lifecycle.SalesOrderConfirm, so.Guard(0, 0), now)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Equal(t, lifecycle.SalesOrderDraft, so.Status)
}

func TestSalesOrder_WarehouseGroups(t *testing.T) {
	so := confirmedOrder(t, 5, 7)
	fallback := id.New()

	groups, err := so.WarehouseGroups(fallback)
	require.NoError(t, err)
	assert.Equal(t, map[id.ID][]int{fallback: {0, 1}}, groups)

	other := id.New()
	so.Lines[1].WarehouseID = other
	groups, err = so.WarehouseGroups(fallback)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
	assert.Len(t, SortedWarehouses(groups), 2)

	_, err = so.WarehouseGroups(id.Nil())
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestPicklist_PartialPick(t *testing.T) {
	so := confirmedOrder(t, 75)
	pl := NewPicklist(so, catalogs.Ref{ID: id.New(), Code: "WH-1"}, []int{0}, now)
	lineID := pl.Lines[0].LineID

	_, err := pl.RecordPick(lineID, types.NewQuantity(80), now)
	require.True(t, apperror.HasCode(err, apperror.CodeOverPick))
	assert.Nil(t, pl.Lines[0].PickedQuantity)
	assert.Equal(t, lifecycle.PicklistCreated, pl.Status)

	_, err = pl.RecordPick(lineID, types.NewQuantity(60), now)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.PicklistInProgress, pl.Status)
	assert.Equal(t, types.NewQuantity(60), pl.Lines[0].Picked())

	_, err = pl.Fire(lifecycle.PicklistComplete, false, now)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.PicklistPicked, pl.Status)

	require.NoError(t, so.AddPicked(so.Lines[0].LineID, pl.PickedByOrderLine()[so.Lines[0].LineID]))
	assert.Equal(t, types.NewQuantity(15), so.Lines[0].Unpicked())
}

func TestPicklist_CompleteNeedsEveryLine(t *testing.T) {
	so := confirmedOrder(t, 3, 4)
	pl := NewPicklist(so, catalogs.Ref{ID: id.New()}, []int{0, 1}, now)

	_, err := pl.RecordPick(pl.Lines[0].LineID, types.NewQuantity(3), now)
	require.NoError(t, err)

	_, err = pl.Fire(lifecycle.PicklistComplete, false, now)
	assert.True(t, apperror.IsInvalidTransition(err))

	_, err = pl.RecordPick(pl.Lines[1].LineID, 0, now)
	require.NoError(t, err)
	_, err = pl.Fire(lifecycle.PicklistComplete, false, now)
	require.NoError(t, err)

	_, err = pl.Fire(lifecycle.PicklistCancel, true, now)
	assert.True(t, apperror.IsInvalidTransition(err), "active dispatch blocks cancel")
}

func pickedList(t *testing.T) *Picklist {
	t.Helper()
	so := confirmedOrder(t, 10, 5)
	pl := NewPicklist(so, catalogs.Ref{ID: id.New()}, []int{0, 1}, now)
	_, err := pl.RecordPick(pl.Lines[0].LineID, types.NewQuantity(10), now)
	require.NoError(t, err)
	_, err = pl.RecordPick(pl.Lines[1].LineID, 0, now)
	require.NoError(t, err)
	_, err = pl.Fire(lifecycle.PicklistComplete, false, now)
	require.NoError(t, err)
	return pl
}

func TestDispatch_TrackingIsAppendOnly(t *testing.T) {
	pl := pickedList(t)

	d, err := NewDispatch(pl, "DHL", "JD0001", now)
	require.NoError(t, err)
	require.Len(t, d.Lines, 1, "zero picks are not shipped")
	assert.Equal(t, types.NewQuantity(10), d.Lines[0].Quantity)

	_, err = d.Fire(lifecycle.DispatchShip, "", "", now)
	require.NoError(t, err)
	assert.True(t, d.Shipped())

	_, err = d.Fire(lifecycle.DispatchDepart, "Hub A", "", now.Add(time.Hour))
	require.NoError(t, err)

	_, err = d.Fire(lifecycle.DispatchTrack, "", "", now)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = d.Fire(lifecycle.DispatchTrack, "Hub B", "sorted", now.Add(2*time.Hour))
	require.NoError(t, err)

	events := d.Tracking()
	require.Len(t, events, 4)
	assert.Equal(t, lifecycle.DispatchCreated, events[0].Status)
	assert.Equal(t, "Hub B", events[3].Location)
	assert.Equal(t, 4, events[3].Seq)

	events[0].Location = "tampered"
	assert.Empty(t, d.Tracking()[0].Location)

	_, err = d.Fire(lifecycle.DispatchDeliver, "", "", now.Add(3*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, d.DeliveredAt)

	_, err = d.Fire(lifecycle.DispatchCancel, "", "", now)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Len(t, d.Tracking(), 5)
}

func TestDispatch_JSONKeepsTracking(t *testing.T) {
	d, err := NewDispatch(pickedList(t), "UPS", "", now)
	require.NoError(t, err)
	_, err = d.Fire(lifecycle.DispatchShip, "", "", now)
	require.NoError(t, err)

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var back Dispatch
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d.Tracking(), back.Tracking())
	assert.Equal(t, d.ID, back.ID)
	assert.Equal(t, lifecycle.DispatchDispatched, back.Status)
	require.NoError(t, back.Validate(context.Background()))
}

func TestNewDispatch_RequiresPickedList(t *testing.T) {
	so := confirmedOrder(t, 1)
	pl := NewPicklist(so, catalogs.Ref{ID: id.New()}, []int{0}, now)
	_, err := NewDispatch(pl, "DHL", "", now)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestSalesOrder_QuantityBounds(t *testing.T) {
	so := confirmedOrder(t, 10)
	lineID := so.Lines[0].LineID

	require.NoError(t, so.AddPicked(lineID, types.NewQuantity(8)))
	assert.True(t, apperror.HasCode(so.AddPicked(lineID, types.NewQuantity(3)), apperror.CodeOverPick))

	require.NoError(t, so.AddDispatched(lineID, types.NewQuantity(8)))
	assert.Error(t, so.AddDispatched(lineID, types.NewQuantity(1)))

	require.NoError(t, so.AddInvoiced(lineID, types.NewQuantity(5)))
	assert.True(t, so.Unbilled())
	require.NoError(t, so.AddInvoiced(lineID, types.NewQuantity(3)))
	assert.False(t, so.Unbilled())
}
