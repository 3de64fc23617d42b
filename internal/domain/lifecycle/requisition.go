package lifecycle

// RequisitionStatus is the closed status set of a purchase requisition.
type RequisitionStatus string

const (
	RequisitionDraft     RequisitionStatus = "draft"
	RequisitionPending   RequisitionStatus = "pending"
	RequisitionApproved  RequisitionStatus = "approved"
	RequisitionRejected  RequisitionStatus = "rejected"
	RequisitionCancelled RequisitionStatus = "cancelled"
)

type RequisitionAction string

const (
	RequisitionSubmit  RequisitionAction = "submit"
	RequisitionApprove RequisitionAction = "approve"
	RequisitionReject  RequisitionAction = "reject"
	RequisitionCancel  RequisitionAction = "cancel"
)

// RequisitionGuard carries what requisition guards check.
type RequisitionGuard struct {
	LineCount int
}

func requireRequisitionLines(g RequisitionGuard) error {
	if g.LineCount == 0 {
		return Deny("requisition has no items")
	}
	return nil
}

// RequisitionMachine: draft → pending → approved | rejected, cancel up to approved.
var RequisitionMachine = NewMachine[RequisitionStatus, RequisitionAction, RequisitionGuard](
	"requisition",
	[]RequisitionStatus{RequisitionDraft, RequisitionPending, RequisitionApproved, RequisitionRejected, RequisitionCancelled},
	[]RequisitionAction{RequisitionSubmit, RequisitionApprove, RequisitionReject, RequisitionCancel},
).
	On(RequisitionSubmit, []RequisitionStatus{RequisitionDraft},
		Guarded(RequisitionPending, requireRequisitionLines)).
	On(RequisitionApprove, []RequisitionStatus{RequisitionPending},
		Guarded(RequisitionApproved, requireRequisitionLines)).
	On(RequisitionReject, []RequisitionStatus{RequisitionPending},
		To[RequisitionStatus, RequisitionGuard](RequisitionRejected)).
	On(RequisitionCancel, []RequisitionStatus{RequisitionDraft, RequisitionPending, RequisitionApproved},
		To[RequisitionStatus, RequisitionGuard](RequisitionCancelled)).
	Terminal(RequisitionRejected, RequisitionCancelled)
