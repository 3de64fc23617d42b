// Package reconcile holds the pure line-item arithmetic of the pipeline:
// per-line totals, quantity bounds between stages and document totals.
// Nothing here touches storage or clocks.
package reconcile

import (
	"github.com/shopspring/decimal"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/types"
)

var hundred = decimal.NewFromInt(100)

// Line is the priced part shared by requisition, order, receipt and invoice lines.
type Line struct {
	Quantity        types.Quantity  `json:"quantity"`
	UnitPrice       types.Money     `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	TaxPercent      decimal.Decimal `json:"taxPercent"`
}

// Amounts are the derived money fields of a line, each rounded to currency
// precision. NetAmount + TaxAmount == LineTotal holds exactly.
type Amounts struct {
	GrossAmount    types.Money `json:"grossAmount"`
	DiscountAmount types.Money `json:"discountAmount"`
	NetAmount      types.Money `json:"netAmount"`
	TaxAmount      types.Money `json:"taxAmount"`
	LineTotal      types.Money `json:"lineTotal"`
}

// Validate checks quantity > 0, price >= 0, 0 <= discount <= 100 and tax >= 0.
func (l Line) Validate() error {
	if !l.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", l.Quantity.String())
	}
	if l.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").
			WithDetail("field", "unitPrice").
			WithDetail("value", l.UnitPrice.String())
	}
	if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred) {
		return apperror.NewValidation("discount percent must be between 0 and 100").
			WithDetail("field", "discountPercent").
			WithDetail("value", l.DiscountPercent.String())
	}
	if l.TaxPercent.IsNegative() {
		return apperror.NewValidation("tax percent must not be negative").
			WithDetail("field", "taxPercent").
			WithDetail("value", l.TaxPercent.String())
	}
	return nil
}

// Compute returns the line's amounts.
func (l Line) Compute() (Amounts, error) {
	return ComputeLineTotal(l.Quantity, l.UnitPrice, l.DiscountPercent, l.TaxPercent)
}

// ComputeLineTotal evaluates
//
//	lineTotal = qty * unitPrice * (1 - discount/100) * (1 + tax/100)
//
// rounding each component half-up to 2 places: gross, then discount, then
// tax on the discounted net. The same inputs always give the same amounts.
func ComputeLineTotal(qty types.Quantity, unitPrice types.Money, discountPct, taxPct decimal.Decimal) (Amounts, error) {
	l := Line{Quantity: qty, UnitPrice: unitPrice, DiscountPercent: discountPct, TaxPercent: taxPct}
	if err := l.Validate(); err != nil {
		return Amounts{}, err
	}

	gross := types.RoundCurrency(qty.Decimal().Mul(unitPrice))
	discount := types.RoundCurrency(types.Percent(gross, discountPct))
	net := gross.Sub(discount)
	tax := types.RoundCurrency(types.Percent(net, taxPct))

	return Amounts{
		GrossAmount:    gross,
		DiscountAmount: discount,
		NetAmount:      net,
		TaxAmount:      tax,
		LineTotal:      net.Add(tax),
	}, nil
}

// LineTotal is ComputeLineTotal reduced to the total amount.
func LineTotal(qty types.Quantity, unitPrice types.Money, discountPct, taxPct decimal.Decimal) (types.Money, error) {
	a, err := ComputeLineTotal(qty, unitPrice, discountPct, taxPct)
	if err != nil {
		return decimal.Zero, err
	}
	return a.LineTotal, nil
}

// PricedLine is a Line together with its derived amounts. Document lines embed it.
type PricedLine struct {
	Line
	Amounts
}

// Recalculate refreshes Amounts from Line.
func (p *PricedLine) Recalculate() error {
	a, err := p.Line.Compute()
	if err != nil {
		return err
	}
	p.Amounts = a
	return nil
}

// WithQuantity returns a copy of p priced for qty. Used when a downstream
// document bills or receives only part of the source line.
func (p PricedLine) WithQuantity(qty types.Quantity) (PricedLine, error) {
	out := PricedLine{Line: p.Line}
	out.Quantity = qty
	if err := out.Recalculate(); err != nil {
		return PricedLine{}, err
	}
	return out, nil
}
