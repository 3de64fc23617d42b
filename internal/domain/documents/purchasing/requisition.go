package purchasing

import (
	"context"
	"time"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/entity"
	"orderflow/internal/core/id"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/lifecycle"
	"orderflow/internal/domain/reconcile"
)

// Requisition is an internal request to buy goods. Approval does not create
// a purchase order; conversion is a separate step.
type Requisition struct {
	entity.BaseDocument

	Status lifecycle.RequisitionStatus `json:"status"`

	RequestedBy string     `json:"requestedBy,omitempty"`
	Department  string     `json:"department,omitempty"`
	RequiredBy  *time.Time `json:"requiredBy,omitempty"`

	// Set by approve
	ApprovedBy   string     `json:"approvedBy,omitempty"`
	ApprovedDate *time.Time `json:"approvedDate,omitempty"`

	RejectionReason string `json:"rejectionReason,omitempty"`

	Lines  []RequisitionLine `json:"lines"`
	Totals reconcile.Totals  `json:"totals"`
}

// RequisitionLine is a requested item with its estimated price.
type RequisitionLine struct {
	documents.Line
	Notes string `json:"notes,omitempty"`
}

// NewRequisition creates a draft requisition.
func NewRequisition(now time.Time) *Requisition {
	r := &Requisition{
		BaseDocument: entity.NewBaseDocument(now),
		Status:       lifecycle.RequisitionDraft,
		Lines:        make([]RequisitionLine, 0),
	}
	r.Totals, _ = documents.Recalculate(r.Lines)
	return r
}

func (r *Requisition) Kind() string       { return KindRequisition }
func (r *Requisition) StatusName() string { return string(r.Status) }
func (r *Requisition) ParentID() id.ID    { return id.Nil() }

// SetLines replaces the lines. Only a draft may be edited.
func (r *Requisition) SetLines(lines []RequisitionLine, now time.Time) error {
	if r.Status != lifecycle.RequisitionDraft {
		return apperror.NewInvalidTransition(KindRequisition, string(r.Status), "update_lines")
	}
	r.Lines = lines
	if err := r.Recalculate(); err != nil {
		return err
	}
	r.Touch(now)
	return nil
}

// Recalculate renumbers lines and refreshes amounts and totals.
func (r *Requisition) Recalculate() error {
	documents.Renumber(r.Lines)
	totals, err := documents.Recalculate(r.Lines)
	if err != nil {
		return err
	}
	r.Totals = totals
	return nil
}

// Validate implements entity.Validatable.
func (r *Requisition) Validate(ctx context.Context) error {
	if _, err := lifecycle.RequisitionMachine.Parse(string(r.Status)); err != nil {
		return err
	}
	for i, line := range r.Lines {
		if line.Item.IsZero() {
			return apperror.NewValidation("item is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if err := line.Line.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Requisition) guard() lifecycle.RequisitionGuard {
	return lifecycle.RequisitionGuard{LineCount: len(r.Lines)}
}

// Fire applies a status action.
func (r *Requisition) Fire(action lifecycle.RequisitionAction, now time.Time) (documents.Transition, error) {
	return documents.Fire(lifecycle.RequisitionMachine, r, &r.Status, action, r.guard(), now)
}

// Approve moves pending to approved and records who approved it.
func (r *Requisition) Approve(actor string, now time.Time) (documents.Transition, error) {
	t, err := r.Fire(lifecycle.RequisitionApprove, now)
	if err != nil {
		return t, err
	}
	at := now.UTC()
	r.ApprovedBy = actor
	r.ApprovedDate = &at
	return t, nil
}

// Reject moves pending to rejected.
func (r *Requisition) Reject(reason string, now time.Time) (documents.Transition, error) {
	t, err := r.Fire(lifecycle.RequisitionReject, now)
	if err != nil {
		return t, err
	}
	r.RejectionReason = reason
	return t, nil
}

var _ entity.Validatable = (*Requisition)(nil)
