package documents

import (
	"time"

	"orderflow/internal/core/id"
	"orderflow/internal/domain/lifecycle"
)

// Transition is one applied status change, reported to observers.
type Transition struct {
	DocumentID id.ID  `json:"documentId"`
	Document   string `json:"document"`
	Number     string `json:"documentNo"`
	Action     string `json:"action"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type stamped interface {
	GetNumber() string
	Touch(now time.Time)
}

// Fire runs action through m and stores the resulting status. On error the
// status is left untouched.
func Fire[S ~string, A ~string, G any](m *lifecycle.Machine[S, A, G], doc stamped, status *S, action A, g G, now time.Time) (Transition, error) {
	from := *status
	to, err := m.Fire(from, action, g)
	if err != nil {
		return Transition{}, err
	}
	*status = to
	doc.Touch(now)
	return Transition{
		Document: m.Document(),
		Number:   doc.GetNumber(),
		Action:   string(action),
		From:     string(from),
		To:       string(to),
	}, nil
}
