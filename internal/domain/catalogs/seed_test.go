package catalogs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
)

const seedJSON = `{
  "items": [
    {"id": "0190a3c2-0000-7000-8000-000000000001", "code": "STL-10", "name": "Steel rod 10mm", "unit": "pcs", "defaultTaxPercent": "18", "isActive": true}
  ],
  "warehouses": [
    {"id": "0190a3c2-0000-7000-8000-000000000002", "code": "MAIN", "name": "Main", "isDefault": true, "isActive": true}
  ],
  "suppliers": [
    {"id": "0190a3c2-0000-7000-8000-000000000003", "code": "ACME", "name": "Acme Metals", "paymentTermsDays": 45}
  ],
  "customers": [
    {"id": "0190a3c2-0000-7000-8000-000000000004", "code": "BUILDCO", "name": "BuildCo"}
  ]
}`

func TestReadSeed_LoadsMemoryCatalog(t *testing.T) {
	seed, err := ReadSeed(strings.NewReader(seedJSON))
	require.NoError(t, err)

	cat := NewMemoryCatalog()
	seed.Load(cat)

	item, err := cat.Item(context.Background(), id.MustParse("0190a3c2-0000-7000-8000-000000000001"))
	require.NoError(t, err)
	assert.Equal(t, "STL-10", item.Code)
	assert.Equal(t, "18", item.DefaultTaxPercent.String())

	wh, ok := cat.DefaultWarehouse()
	require.True(t, ok)
	assert.Equal(t, "MAIN", wh.Code)

	sup, err := cat.Supplier(context.Background(), id.MustParse("0190a3c2-0000-7000-8000-000000000003"))
	require.NoError(t, err)
	assert.Equal(t, 45, sup.PaymentTermsDays)
}

func TestSeed_Validate(t *testing.T) {
	dup := id.New()
	tests := []struct {
		name string
		seed Seed
	}{
		{"missing id", Seed{Items: []Item{{Code: "X", Name: "X"}}}},
		{"missing name", Seed{Suppliers: []Supplier{{ID: id.New(), Code: "S"}}}},
		{"duplicate id", Seed{
			Items:     []Item{{ID: dup, Code: "X", Name: "X"}},
			Customers: []Customer{{ID: dup, Code: "C", Name: "C"}},
		}},
		{"two defaults", Seed{Warehouses: []Warehouse{
			{ID: id.New(), Code: "A", Name: "A", IsDefault: true},
			{ID: id.New(), Code: "B", Name: "B", IsDefault: true},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seed.Validate()
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

func TestReadSeed_RejectsUnknownFields(t *testing.T) {
	_, err := ReadSeed(strings.NewReader(`{"vendors": []}`))
	assert.Error(t, err)
}
