package documents

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/catalogs"
)

func TestNewLine_UsesItemDefaultTax(t *testing.T) {
	ctx := context.Background()
	cat := catalogs.NewMemoryCatalog()
	item := catalogs.Item{ID: id.New(), Code: "CBL-5", Name: "Cable 5m", DefaultTaxPercent: decimal.NewFromInt(18)}
	cat.PutItem(item)

	l, err := NewLine(ctx, cat, LineInput{
		ItemID:    item.ID,
		Quantity:  types.NewQuantity(10),
		UnitPrice: types.MustMoney("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "CBL-5", l.Item.Code)
	assert.Equal(t, "180.00", types.FormatMoney(l.TaxAmount))
	assert.Equal(t, "1180.00", types.FormatMoney(l.LineTotal))

	zero := decimal.Zero
	l, err = NewLine(ctx, cat, LineInput{
		ItemID:     item.ID,
		Quantity:   types.NewQuantity(10),
		UnitPrice:  types.MustMoney("100"),
		TaxPercent: &zero,
	})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", types.FormatMoney(l.LineTotal))
}

func TestNewLine_Errors(t *testing.T) {
	ctx := context.Background()
	cat := catalogs.NewMemoryCatalog()

	_, err := NewLine(ctx, cat, LineInput{Quantity: types.NewQuantity(1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = NewLine(ctx, cat, LineInput{ItemID: id.New(), Quantity: types.NewQuantity(1)})
	assert.True(t, apperror.IsNotFound(err))
}

type testLine struct {
	Line
	Note string
}

func TestRecalculate_RenumberAndIndex(t *testing.T) {
	lines := []testLine{
		{Line: Line{LineID: id.New()}},
		{Line: Line{LineID: id.New()}},
	}
	lines[0].Quantity = types.NewQuantity(2)
	lines[0].UnitPrice = types.MustMoney("10")
	lines[1].Quantity = types.NewQuantity(1)
	lines[1].UnitPrice = types.MustMoney("5.50")

	Renumber(lines)
	assert.Equal(t, 1, lines[0].LineNo)
	assert.Equal(t, 2, lines[1].LineNo)

	totals, err := Recalculate(lines)
	require.NoError(t, err)
	assert.Equal(t, "25.50", types.FormatMoney(totals.Total))

	assert.Equal(t, 1, IndexOf(lines, lines[1].LineID))
	assert.Equal(t, -1, IndexOf(lines, id.New()))

	lines[1].Quantity = 0
	_, err = Recalculate(lines)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestLine_Derive(t *testing.T) {
	l := Line{LineID: id.New(), Item: catalogs.Ref{ID: id.New(), Code: "X"}}
	l.Quantity = types.NewQuantity(200)
	l.UnitPrice = types.MustMoney("1200")
	l.DiscountPercent = decimal.NewFromInt(5)

	part, err := l.Derive(types.NewQuantity(50))
	require.NoError(t, err)
	assert.NotEqual(t, l.LineID, part.LineID)
	assert.Equal(t, l.Item, part.Item)
	assert.Equal(t, "57000.00", types.FormatMoney(part.LineTotal))
}
