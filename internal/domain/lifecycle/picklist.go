package lifecycle

// PicklistStatus is the closed status set of a picklist.
type PicklistStatus string

const (
	PicklistCreated    PicklistStatus = "created"
	PicklistInProgress PicklistStatus = "in_progress"
	PicklistOnHold     PicklistStatus = "on_hold"
	PicklistPicked     PicklistStatus = "picked"
	PicklistCancelled  PicklistStatus = "cancelled"
)

type PicklistAction string

const (
	PicklistStart      PicklistAction = "start"
	PicklistRecordPick PicklistAction = "record_pick"
	PicklistHold       PicklistAction = "hold"
	PicklistResume     PicklistAction = "resume"
	PicklistComplete   PicklistAction = "complete"
	PicklistCancel     PicklistAction = "cancel"
)

// PicklistGuard carries pick progress and dispatch state.
type PicklistGuard struct {
	// Unrecorded counts lines without a picked quantity
	Unrecorded int

	// ActiveDispatch is set when a non-cancelled dispatch exists
	ActiveDispatch bool
}

// PicklistMachine: created → in_progress → picked, with hold/resume and cancel.
// Partial picks are recorded, not rejected.
var PicklistMachine = NewMachine[PicklistStatus, PicklistAction, PicklistGuard](
	"picklist",
	[]PicklistStatus{PicklistCreated, PicklistInProgress, PicklistOnHold, PicklistPicked, PicklistCancelled},
	[]PicklistAction{PicklistStart, PicklistRecordPick, PicklistHold, PicklistResume, PicklistComplete, PicklistCancel},
).
	On(PicklistStart, []PicklistStatus{PicklistCreated},
		To[PicklistStatus, PicklistGuard](PicklistInProgress)).
	On(PicklistRecordPick, []PicklistStatus{PicklistCreated, PicklistInProgress},
		To[PicklistStatus, PicklistGuard](PicklistInProgress)).
	On(PicklistHold, []PicklistStatus{PicklistCreated, PicklistInProgress},
		To[PicklistStatus, PicklistGuard](PicklistOnHold)).
	On(PicklistResume, []PicklistStatus{PicklistOnHold},
		To[PicklistStatus, PicklistGuard](PicklistInProgress)).
	On(PicklistComplete, []PicklistStatus{PicklistInProgress},
		Guarded(PicklistPicked, func(g PicklistGuard) error {
			if g.Unrecorded > 0 {
				return Deny("every line needs a picked quantity")
			}
			return nil
		})).
	On(PicklistCancel, []PicklistStatus{PicklistCreated, PicklistInProgress, PicklistOnHold, PicklistPicked},
		Guarded(PicklistCancelled, func(g PicklistGuard) error {
			if g.ActiveDispatch {
				return Deny("picklist has an active dispatch")
			}
			return nil
		})).
	Alias("completed", PicklistPicked).
	Terminal(PicklistCancelled)
