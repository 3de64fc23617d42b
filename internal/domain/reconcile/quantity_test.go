package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/types"
)

func q(s string) types.Quantity { return types.MustQuantity(s) }

func TestValidateReceiptLine(t *testing.T) {
	tests := []struct {
		name                                 string
		ordered, received, accepted, rejected string
		code                                 string
	}{
		{"exact", "200", "200", "200", "0", ""},
		{"partial", "200", "150", "150", "0", ""},
		{"with rejects", "200", "50", "45", "5", ""},
		{"nothing yet", "200", "0", "0", "0", ""},
		{"over receipt", "200", "201", "201", "0", apperror.CodeOverReceipt},
		{"mismatch short", "200", "50", "45", "4", apperror.CodeQuantityMismatch},
		{"mismatch long", "200", "50", "50", "1", apperror.CodeQuantityMismatch},
		{"over receipt wins", "10", "12", "1", "1", apperror.CodeOverReceipt},
		{"negative", "10", "-1", "0", "0", apperror.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReceiptLine(q(tt.ordered), q(tt.received), q(tt.accepted), q(tt.rejected))
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestValidateReceiptLine_NeverClamps(t *testing.T) {
	err := ValidateReceiptLine(q("100"), q("60"), q("50"), q("5"))
	require.Error(t, err)
	assert.True(t, apperror.IsReconciliation(err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "60.0000", appErr.Details["received"])
	assert.Equal(t, "50.0000", appErr.Details["accepted"])
}

func TestValidatePickLine(t *testing.T) {
	require.NoError(t, ValidatePickLine(q("75"), q("60")))
	require.NoError(t, ValidatePickLine(q("75"), q("75")))
	require.NoError(t, ValidatePickLine(q("75"), q("0")))

	err := ValidatePickLine(q("75"), q("80"))
	assert.True(t, apperror.HasCode(err, apperror.CodeOverPick))
	assert.True(t, apperror.IsReconciliation(err))

	err = ValidatePickLine(q("75"), q("-1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
