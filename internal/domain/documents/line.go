// Package documents holds what the staged document packages share: the
// priced line with its catalog snapshot, and line editing helpers.
package documents

import (
	"context"

	"github.com/shopspring/decimal"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/domain/reconcile"
)

// Line is a priced document line referencing a catalog item.
type Line struct {
	LineID id.ID        `json:"lineId"`
	LineNo int          `json:"lineNo"`
	Item   catalogs.Ref `json:"item"`
	reconcile.PricedLine
}

// LineInput describes a line to add or replace.
type LineInput struct {
	ItemID          id.ID
	Quantity        types.Quantity
	UnitPrice       types.Money
	DiscountPercent decimal.Decimal

	// TaxPercent nil falls back to the item's default rate
	TaxPercent *decimal.Decimal
}

// NewLine resolves the item snapshot and prices the line.
func NewLine(ctx context.Context, lookup catalogs.Lookup, in LineInput) (Line, error) {
	if id.IsNil(in.ItemID) {
		return Line{}, apperror.NewValidation("item is required").WithDetail("field", "itemId")
	}
	item, err := lookup.Item(ctx, in.ItemID)
	if err != nil {
		return Line{}, err
	}

	tax := item.DefaultTaxPercent
	if in.TaxPercent != nil {
		tax = *in.TaxPercent
	}

	l := Line{
		LineID: id.New(),
		Item:   item.Ref(),
		PricedLine: reconcile.PricedLine{Line: reconcile.Line{
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			DiscountPercent: in.DiscountPercent,
			TaxPercent:      tax,
		}},
	}
	if err := l.Recalculate(); err != nil {
		return Line{}, err
	}
	return l, nil
}

// Input converts l back into a LineInput (carrying lines forward).
func (l Line) Input() LineInput {
	tax := l.TaxPercent
	return LineInput{
		ItemID:          l.Item.ID,
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		DiscountPercent: l.DiscountPercent,
		TaxPercent:      &tax,
	}
}

// Derive copies l under a new line id with quantity qty, re-priced.
func (l Line) Derive(qty types.Quantity) (Line, error) {
	priced, err := l.PricedLine.WithQuantity(qty)
	if err != nil {
		return Line{}, err
	}
	return Line{LineID: id.New(), Item: l.Item, PricedLine: priced}, nil
}

// Lined is implemented by line types embedding Line.
type Lined interface {
	Base() *Line
}

func (l *Line) Base() *Line { return l }

// Renumber assigns LineNo 1..n in slice order.
func Renumber[L any, P interface {
	*L
	Lined
}](lines []L) {
	for i := range lines {
		P(&lines[i]).Base().LineNo = i + 1
	}
}

// Recalculate reprices every line and returns the document totals.
func Recalculate[L any, P interface {
	*L
	Lined
}](lines []L) (reconcile.Totals, error) {
	amounts := make([]reconcile.Amounts, 0, len(lines))
	for i := range lines {
		base := P(&lines[i]).Base()
		if err := base.Recalculate(); err != nil {
			return reconcile.Totals{}, apperror.NewValidation("invalid line").
				WithDetail("lineNo", i+1).
				WithCause(err)
		}
		amounts = append(amounts, base.Amounts)
	}
	return reconcile.Sum(amounts), nil
}

// IndexOf returns the position of the line with lineID, or -1.
func IndexOf[L any, P interface {
	*L
	Lined
}](lines []L, lineID id.ID) int {
	for i := range lines {
		if P(&lines[i]).Base().LineID == lineID {
			return i
		}
	}
	return -1
}

// LineNotFound is the error for an unknown line id.
func LineNotFound(document string, lineID id.ID) error {
	return apperror.NewNotFound(document+" line", lineID.String())
}
