package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
)

type fakeDoc struct {
	Number string `json:"documentNo"`
	Status string `json:"status"`
	Totals struct {
		Total string `json:"total"`
	} `json:"totals"`
	Supplier struct {
		Code string `json:"code"`
	} `json:"supplier"`
}

func newFakeDoc(status, total, supplier string) fakeDoc {
	d := fakeDoc{Number: "PO-2026-00001", Status: status}
	d.Totals.Total = total
	d.Supplier.Code = supplier
	return d
}

func TestCompile_Empty(t *testing.T) {
	expr, err := Compile("")
	require.NoError(t, err)
	assert.Nil(t, expr)

	ok, err := expr.Match(newFakeDoc("draft", "0", ""))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("status ==")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = Compile(`status`)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "non-boolean expression must be rejected")
}

func TestExpr_Match(t *testing.T) {
	tests := []struct {
		name string
		expr string
		doc  fakeDoc
		want bool
	}{
		{"status match", `status == "ordered"`, newFakeDoc("ordered", "10", ""), true},
		{"status miss", `status == "ordered"`, newFakeDoc("draft", "10", ""), false},
		{"total above", `total > 1000.0`, newFakeDoc("ordered", "317000.00", ""), true},
		{"total below", `total > 1000.0`, newFakeDoc("ordered", "999.99", ""), false},
		{"nested field", `doc.supplier.code == "ACME"`, newFakeDoc("draft", "0", "ACME"), true},
		{"number prefix", `number.startsWith("PO-")`, newFakeDoc("draft", "0", ""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Compile(tt.expr)
			require.NoError(t, err)

			got, err := expr.Match(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.expr, expr.String())
		})
	}
}
