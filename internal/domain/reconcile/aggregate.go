package reconcile

import (
	"github.com/shopspring/decimal"

	"orderflow/internal/core/types"
)

// Totals are the document-level sums of line amounts.
//
//	Subtotal = Σ net, Discount = Σ discount, Tax = Σ tax
//	Total    = Subtotal + Tax = Σ lineTotal
type Totals struct {
	Subtotal types.Money `json:"subtotal"`
	Discount types.Money `json:"discount"`
	Tax      types.Money `json:"tax"`
	Total    types.Money `json:"total"`
}

// Aggregate recomputes every line and sums the rounded amounts.
// Lines are rounded before summing, so the result does not depend on order.
func Aggregate(lines []Line) (Totals, error) {
	amounts := make([]Amounts, 0, len(lines))
	for _, l := range lines {
		a, err := l.Compute()
		if err != nil {
			return Totals{}, err
		}
		amounts = append(amounts, a)
	}
	return Sum(amounts), nil
}

// Sum adds already computed line amounts.
func Sum(amounts []Amounts) Totals {
	t := Totals{
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Tax:      decimal.Zero,
	}
	for _, a := range amounts {
		t.Subtotal = t.Subtotal.Add(a.NetAmount)
		t.Discount = t.Discount.Add(a.DiscountAmount)
		t.Tax = t.Tax.Add(a.TaxAmount)
	}
	t.Total = t.Subtotal.Add(t.Tax)
	return t
}

// SumPriced is Sum over the amounts of priced lines.
func SumPriced(lines []PricedLine) Totals {
	amounts := make([]Amounts, len(lines))
	for i, l := range lines {
		amounts[i] = l.Amounts
	}
	return Sum(amounts)
}

// Equal compares totals by value.
func (t Totals) Equal(o Totals) bool {
	return t.Subtotal.Equal(o.Subtotal) &&
		t.Discount.Equal(o.Discount) &&
		t.Tax.Equal(o.Tax) &&
		t.Total.Equal(o.Total)
}
