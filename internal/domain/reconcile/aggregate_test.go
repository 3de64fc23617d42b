package reconcile

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/types"
)

func TestAggregate_RequisitionScenario(t *testing.T) {
	lines := []Line{
		{Quantity: types.NewQuantity(200), UnitPrice: types.MustMoney("1200"), DiscountPercent: pct("5")},
		{Quantity: types.NewQuantity(100), UnitPrice: types.MustMoney("890")},
	}

	totals, err := Aggregate(lines)
	require.NoError(t, err)
	assert.Equal(t, "317000.00", types.FormatMoney(totals.Subtotal))
	assert.Equal(t, "12000.00", types.FormatMoney(totals.Discount))
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.Equal(totals.Subtotal))
}

func TestAggregate_Empty(t *testing.T) {
	totals, err := Aggregate(nil)
	require.NoError(t, err)
	assert.True(t, totals.Total.IsZero())
	assert.True(t, totals.Subtotal.IsZero())
}

func TestAggregate_OrderIndependent(t *testing.T) {
	lines := []Line{
		{Quantity: q("3"), UnitPrice: types.MustMoney("0.335"), TaxPercent: pct("18")},
		{Quantity: q("7.25"), UnitPrice: types.MustMoney("19.99"), DiscountPercent: pct("12.5"), TaxPercent: pct("5")},
		{Quantity: q("1"), UnitPrice: types.MustMoney("0.005"), TaxPercent: pct("28")},
		{Quantity: q("11"), UnitPrice: types.MustMoney("133.33"), DiscountPercent: pct("3"), TaxPercent: pct("12")},
	}

	want, err := Aggregate(lines)
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Line(nil), lines...)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := Aggregate(shuffled)
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
	}

	again, err := Aggregate(lines)
	require.NoError(t, err)
	assert.True(t, want.Equal(again), "aggregation must be idempotent")
}

// Every add/edit/remove sequence keeps total == subtotal + tax == Σ lineTotal.
func TestAggregate_ConsistencyUnderEdits(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	prices := []string{"0.01", "0.335", "9.99", "1200", "890", "17.499"}
	rates := []string{"0", "5", "12", "18", "28", "7.5"}

	var lines []Line
	for step := 0; step < 200; step++ {
		switch op := rnd.Intn(3); {
		case op == 0 || len(lines) == 0:
			lines = append(lines, Line{
				Quantity:        types.NewQuantityFromInt64Scaled(int64(rnd.Intn(5_000_000) + 1)),
				UnitPrice:       types.MustMoney(prices[rnd.Intn(len(prices))]),
				DiscountPercent: decimal.NewFromInt(int64(rnd.Intn(101))),
				TaxPercent:      pct(rates[rnd.Intn(len(rates))]),
			})
		case op == 1:
			i := rnd.Intn(len(lines))
			lines[i].Quantity = types.NewQuantityFromInt64Scaled(int64(rnd.Intn(5_000_000) + 1))
			lines[i].TaxPercent = pct(rates[rnd.Intn(len(rates))])
		default:
			i := rnd.Intn(len(lines))
			lines = append(lines[:i], lines[i+1:]...)
		}

		totals, err := Aggregate(lines)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, l := range lines {
			lt, err := l.Compute()
			require.NoError(t, err)
			sum = sum.Add(lt.LineTotal)
		}

		require.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax)), "step %d", step)
		require.True(t, totals.Total.Equal(sum), "step %d: total %s, sum %s", step, totals.Total, sum)
		require.True(t, totals.Total.Equal(totals.Total.Round(2)), "step %d: total carries sub-cent digits", step)
	}
}

func TestSumPriced(t *testing.T) {
	a := PricedLine{Line: Line{Quantity: q("2"), UnitPrice: types.MustMoney("10"), TaxPercent: pct("10")}}
	b := PricedLine{Line: Line{Quantity: q("1"), UnitPrice: types.MustMoney("5")}}
	require.NoError(t, a.Recalculate())
	require.NoError(t, b.Recalculate())

	totals := SumPriced([]PricedLine{a, b})
	assert.Equal(t, "25.00", types.FormatMoney(totals.Subtotal))
	assert.Equal(t, "2.00", types.FormatMoney(totals.Tax))
	assert.Equal(t, "27.00", types.FormatMoney(totals.Total))
}
