// Package wire maps documents to and from the JSON shapes exchanged with the
// backend collaborator and the service API.
//
// Inbound payloads are tolerated in several spellings (alternate field names,
// minor units, status casing, data envelopes) and normalized into canonical
// DTOs. Outbound DTOs always use one spelling.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"orderflow/internal/core/types"
)

// Amount is a decimal rendered as a JSON string with at least two places.
// Extra precision is kept, never rounded away.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

// MustAmount parses s, panics on error. Use only for constants and tests.
func MustAmount(s string) Amount { return Amount{Decimal: decimal.RequireFromString(s)} }

// String renders the amount with two places, or more when a finer scale is set.
func (a Amount) String() string {
	if a.Exponent() < -types.CurrencyPlaces {
		return a.Decimal.String()
	}
	return a.StringFixed(types.CurrencyPlaces)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a JSON number or a decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	if len(data) >= 2 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", data, err)
	}
	a.Decimal = d
	return nil
}
