package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
)

// assertTable checks that exactly the legal pairs have rules and that every
// other pair fails with INVALID_TRANSITION, leaving the status unchanged.
func assertTable[S ~string, A ~string, G any](t *testing.T, m *Machine[S, A, G], legal map[S][]A, g G) {
	t.Helper()
	for _, s := range m.Statuses() {
		allowed := map[A]bool{}
		for _, a := range legal[s] {
			allowed[a] = true
		}
		for _, a := range m.Actions() {
			if allowed[a] {
				assert.True(t, m.Can(s, a), "%s: %s -> %s should be legal", m.Document(), s, a)
				continue
			}
			assert.False(t, m.Can(s, a), "%s: %s -> %s should be illegal", m.Document(), s, a)
			got, err := m.Fire(s, a, g)
			assert.True(t, apperror.IsInvalidTransition(err), "%s: %s -> %s: %v", m.Document(), s, a, err)
			assert.Equal(t, s, got)
		}
	}
}

type testStatus string
type testAction string

func TestMachine_Basics(t *testing.T) {
	m := NewMachine[testStatus, testAction, int]("widget",
		[]testStatus{"open", "closed"},
		[]testAction{"close", "reopen"},
	).
		On("close", []testStatus{"open"}, Guarded[testStatus, int]("closed", func(n int) error {
			if n > 0 {
				return Deny("widget still in use")
			}
			return nil
		})).
		Alias("shut", "closed").
		Terminal("closed")

	to, err := m.Fire("open", "close", 0)
	require.NoError(t, err)
	assert.Equal(t, testStatus("closed"), to)

	to, err = m.Fire("open", "close", 2)
	require.Error(t, err)
	assert.Equal(t, testStatus("open"), to)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	assert.Equal(t, "widget still in use", appErr.Details["reason"])

	_, err = m.Fire("closed", "reopen", 0)
	assert.True(t, apperror.IsInvalidTransition(err))

	assert.True(t, m.IsTerminal("closed"))
	assert.Equal(t, []testAction{"close"}, m.Allowed("open"))
	assert.Empty(t, m.Allowed("closed"))
}

func TestMachine_GuardErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	m := NewMachine[testStatus, testAction, int]("widget", []testStatus{"a", "b"}, []testAction{"go"}).
		On("go", []testStatus{"a"}, Guarded[testStatus, int]("b", func(int) error { return boom }))

	_, err := m.Fire("a", "go", 0)
	assert.ErrorIs(t, err, boom)
	assert.False(t, apperror.IsInvalidTransition(err))
}

func TestMachine_Parse(t *testing.T) {
	tests := []struct {
		raw  string
		want PurchaseOrderStatus
	}{
		{"partially_received", PurchaseOrderPartiallyReceived},
		{"PARTIALLY_RECEIVED", PurchaseOrderPartiallyReceived},
		{"Partially Received", PurchaseOrderPartiallyReceived},
		{"partially-received", PurchaseOrderPartiallyReceived},
		{" ordered ", PurchaseOrderOrdered},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := PurchaseOrderMachine.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PurchaseOrderMachine.Parse("shipped")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	picked, err := PicklistMachine.Parse("Completed")
	require.NoError(t, err)
	assert.Equal(t, PicklistPicked, picked)

	action, err := PurchaseOrderMachine.ParseAction("Receive-Full")
	require.NoError(t, err)
	assert.Equal(t, PurchaseOrderReceiveFull, action)
}
