package lifecycle

// DispatchStatus is the closed status set of a dispatch (shipment).
type DispatchStatus string

const (
	DispatchCreated    DispatchStatus = "created"
	DispatchDispatched DispatchStatus = "dispatched"
	DispatchInTransit  DispatchStatus = "in_transit"
	DispatchDelivered  DispatchStatus = "delivered"
	DispatchCancelled  DispatchStatus = "cancelled"
)

type DispatchAction string

const (
	DispatchShip    DispatchAction = "ship"
	DispatchDepart  DispatchAction = "depart"
	DispatchTrack   DispatchAction = "track"
	DispatchDeliver DispatchAction = "deliver"
	DispatchCancel  DispatchAction = "cancel"
)

// DispatchGuard is empty: dispatch transitions depend on status only.
type DispatchGuard struct{}

// DispatchMachine: created → dispatched → in_transit → delivered, cancel before delivery.
var DispatchMachine = NewMachine[DispatchStatus, DispatchAction, DispatchGuard](
	"dispatch",
	[]DispatchStatus{DispatchCreated, DispatchDispatched, DispatchInTransit, DispatchDelivered, DispatchCancelled},
	[]DispatchAction{DispatchShip, DispatchDepart, DispatchTrack, DispatchDeliver, DispatchCancel},
).
	On(DispatchShip, []DispatchStatus{DispatchCreated},
		To[DispatchStatus, DispatchGuard](DispatchDispatched)).
	On(DispatchDepart, []DispatchStatus{DispatchDispatched},
		To[DispatchStatus, DispatchGuard](DispatchInTransit)).
	On(DispatchTrack, []DispatchStatus{DispatchInTransit},
		To[DispatchStatus, DispatchGuard](DispatchInTransit)).
	On(DispatchDeliver, []DispatchStatus{DispatchInTransit},
		To[DispatchStatus, DispatchGuard](DispatchDelivered)).
	On(DispatchCancel, []DispatchStatus{DispatchCreated, DispatchDispatched, DispatchInTransit},
		To[DispatchStatus, DispatchGuard](DispatchCancelled)).
	Alias("shipped", DispatchDispatched).
	Terminal(DispatchDelivered, DispatchCancelled)
