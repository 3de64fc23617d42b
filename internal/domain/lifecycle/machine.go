// Package lifecycle holds the status state machines of every staged document.
//
// A Machine is a closed table (status, action) -> rule. Any pair missing
// from the table fails with INVALID_TRANSITION; there are no silent no-ops.
// Guards receive a per-document context with the quantities and amounts
// they need and never touch storage.
package lifecycle

import (
	"errors"
	"sort"
	"strings"

	"orderflow/internal/core/apperror"
)

// Rule resolves the target status of one (status, action) pair.
type Rule[S ~string, G any] struct {
	target func(from S, g G) (S, error)
}

// To is an unconditional rule.
func To[S ~string, G any](to S) Rule[S, G] {
	return Rule[S, G]{target: func(S, G) (S, error) { return to, nil }}
}

// Guarded moves to `to` when guard returns nil.
func Guarded[S ~string, G any](to S, guard func(g G) error) Rule[S, G] {
	return Rule[S, G]{target: func(from S, g G) (S, error) {
		if err := guard(g); err != nil {
			return from, err
		}
		return to, nil
	}}
}

// Resolve picks the target from the guard context (e.g. paid vs partially_paid).
func Resolve[S ~string, G any](fn func(from S, g G) (S, error)) Rule[S, G] {
	return Rule[S, G]{target: fn}
}

// denial is a guard refusal; Fire turns it into INVALID_TRANSITION.
type denial struct {
	reason string
}

func (d *denial) Error() string { return d.reason }

// Deny is returned by guards to refuse a transition with a reason.
func Deny(reason string) error {
	return &denial{reason: reason}
}

// Machine is the transition table of one document type.
type Machine[S ~string, A ~string, G any] struct {
	document string
	statuses []S
	actions  []A
	terminal map[S]bool
	aliases  map[string]S
	rules    map[S]map[A]Rule[S, G]
}

// NewMachine creates an empty table over the closed sets of statuses and actions.
func NewMachine[S ~string, A ~string, G any](document string, statuses []S, actions []A) *Machine[S, A, G] {
	return &Machine[S, A, G]{
		document: document,
		statuses: statuses,
		actions:  actions,
		terminal: make(map[S]bool),
		aliases:  make(map[string]S),
		rules:    make(map[S]map[A]Rule[S, G]),
	}
}

// On registers rule for action from every status in from.
func (m *Machine[S, A, G]) On(action A, from []S, rule Rule[S, G]) *Machine[S, A, G] {
	for _, s := range from {
		if m.rules[s] == nil {
			m.rules[s] = make(map[A]Rule[S, G])
		}
		m.rules[s][action] = rule
	}
	return m
}

// Terminal marks statuses with no outgoing transitions. Used by Allowed and
// by callers that need to know whether a document is finished.
func (m *Machine[S, A, G]) Terminal(statuses ...S) *Machine[S, A, G] {
	for _, s := range statuses {
		m.terminal[s] = true
	}
	return m
}

// Alias accepts an extra spelling of status in Parse.
func (m *Machine[S, A, G]) Alias(alias string, status S) *Machine[S, A, G] {
	m.aliases[normalize(alias)] = status
	return m
}

// Document returns the document type name.
func (m *Machine[S, A, G]) Document() string { return m.document }

// Statuses returns the closed status set.
func (m *Machine[S, A, G]) Statuses() []S { return append([]S(nil), m.statuses...) }

// Actions returns the closed action set.
func (m *Machine[S, A, G]) Actions() []A { return append([]A(nil), m.actions...) }

// IsTerminal reports whether status is final.
func (m *Machine[S, A, G]) IsTerminal(status S) bool { return m.terminal[status] }

// Can reports whether the table has a rule for (from, action). Guards are not run.
func (m *Machine[S, A, G]) Can(from S, action A) bool {
	_, ok := m.rules[from][action]
	return ok
}

// Allowed lists actions with a rule from status, sorted by name.
func (m *Machine[S, A, G]) Allowed(from S) []A {
	out := make([]A, 0, len(m.rules[from]))
	for a := range m.rules[from] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fire resolves (from, action, guard) to the next status.
// The caller applies the returned status; Fire has no side effects.
func (m *Machine[S, A, G]) Fire(from S, action A, g G) (S, error) {
	rule, ok := m.rules[from][action]
	if !ok {
		return from, apperror.NewInvalidTransition(m.document, string(from), string(action))
	}

	to, err := rule.target(from, g)
	if err != nil {
		var d *denial
		if errors.As(err, &d) {
			return from, apperror.NewInvalidTransition(m.document, string(from), string(action)).
				WithDetail("reason", d.reason)
		}
		return from, err
	}
	return to, nil
}

// Parse maps any casing or separator variant ("Partially Received",
// "PARTIALLY-RECEIVED") and registered aliases to the canonical status.
func (m *Machine[S, A, G]) Parse(raw string) (S, error) {
	key := normalize(raw)
	for _, s := range m.statuses {
		if string(s) == key {
			return s, nil
		}
	}
	if s, ok := m.aliases[key]; ok {
		return s, nil
	}
	var zero S
	return zero, apperror.NewValidation("unknown status").
		WithDetail("document", m.document).
		WithDetail("status", raw)
}

// ParseAction is Parse for actions.
func (m *Machine[S, A, G]) ParseAction(raw string) (A, error) {
	key := normalize(raw)
	for _, a := range m.actions {
		if string(a) == key {
			return a, nil
		}
	}
	var zero A
	return zero, apperror.NewValidation("unknown action").
		WithDetail("document", m.document).
		WithDetail("action", raw)
}

func normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
