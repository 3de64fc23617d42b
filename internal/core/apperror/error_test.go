package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReconciliation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"over receipt", NewOverReceipt("200", "210"), true},
		{"over pick", NewOverPick("75", "80"), true},
		{"quantity mismatch", NewQuantityMismatch("50", "45", "4"), true},
		{"wrapped", fmt.Errorf("receipt: %w", NewOverPick("1", "2")), true},
		{"validation", NewValidation("bad"), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReconciliation(tt.err))
		})
	}
}

func TestNewInvalidTransition(t *testing.T) {
	err := NewInvalidTransition("purchase_order", "received", "cancel")

	assert.True(t, IsInvalidTransition(err))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(err))
	assert.Equal(t, "received", err.Details["status"])
	assert.Equal(t, "cancel", err.Details["action"])
}

func TestNewOrchestrationFailure(t *testing.T) {
	cause := errors.New("store unavailable")
	err := NewOrchestrationFailure("create dispatch", []string{"update picklist"}, []string{"create dispatch"}, cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"update picklist"}, err.Details["succeeded"])
	assert.Equal(t, []string{"create dispatch"}, err.Details["failed"])

	empty := NewOrchestrationFailure("noop", nil, nil, cause)
	assert.NotNil(t, empty.Details["succeeded"])
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("x")))
	assert.Equal(t, http.StatusBadGateway, GetHTTPStatus(NewUnexpectedResponseShape("/purchase/orders", "missing id")))
}
