// Package types provides common type aliases and utilities.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// CurrencyPlaces is the display and rounding precision of every amount.
const CurrencyPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundCurrency rounds half away from zero to CurrencyPlaces.
// For the non-negative amounts the pipeline produces this is round-half-up.
func RoundCurrency(m Money) Money {
	return m.Round(CurrencyPlaces)
}

// Percent returns m * pct / 100 without rounding.
func Percent(m Money, pct decimal.Decimal) Money {
	return m.Mul(pct).Div(hundred)
}

// FormatMoney renders an amount with exactly CurrencyPlaces digits.
func FormatMoney(m Money) string {
	return m.StringFixed(CurrencyPlaces)
}

// Quantity is a fixed-point quantity with 4 decimal places (scale = 1e4).
//
// Matches Postgres NUMERIC(15,4) semantics, is stored as a scaled BIGINT
// and stays a JSON number with up to 4 decimals.
type Quantity int64

const (
	QuantityScale  int64 = 10_000
	quantityDigits       = 4
)

// ErrQuantityPrecision is returned when a value has more than 4 fractional digits.
var ErrQuantityPrecision = errors.New("quantity has more than 4 fractional digits")

// maxQuantityUnits is the largest whole part a Quantity can hold.
const maxQuantityUnits = math.MaxInt64 / QuantityScale

// NewQuantity creates a whole-unit quantity. It panics when units does not
// fit; use ParseQuantity for untrusted input.
func NewQuantity(units int64) Quantity {
	if units > maxQuantityUnits || units < -maxQuantityUnits {
		panic(fmt.Sprintf("quantity %d out of range", units))
	}
	return Quantity(units * QuantityScale)
}

func NewQuantityFromInt64Scaled(v int64) Quantity { return Quantity(v) }

// NewQuantityFromDecimal converts d exactly, failing on excess precision.
func NewQuantityFromDecimal(d decimal.Decimal) (Quantity, error) {
	scaled := d.Shift(quantityDigits)
	if !scaled.IsInteger() {
		return 0, ErrQuantityPrecision
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("quantity %s out of range", d.String())
	}
	return Quantity(scaled.IntPart()), nil
}

// MustQuantity parses s, panics on error. Use only for constants and tests.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

// Decimal returns the exact decimal value of q.
func (q Quantity) Decimal() decimal.Decimal { return decimal.New(int64(q), -quantityDigits) }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Neg() Quantity { return -q }

func (q Quantity) Add(o Quantity) Quantity { return q + o }

func (q Quantity) Sub(o Quantity) Quantity { return q - o }

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	neg := q < 0
	v := q
	if neg {
		v = -v
	}
	intPart := int64(v) / QuantityScale
	frac := int64(v) % QuantityScale
	if neg {
		return fmt.Sprintf("-%d.%04d", intPart, frac)
	}
	return fmt.Sprintf("%d.%04d", intPart, frac)
}

// MarshalJSON encodes Quantity as JSON number (not string), preserving 4 digits.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string and parses to fixed-point (4 digits).
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	// If string, unquote first.
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}

	parsed, err := ParseQuantity(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuantity parses a plain decimal string. Exponent notation and more
// than 4 fractional digits are rejected rather than rounded, and so is a
// value outside the int64 range of the scaled representation.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}
	raw := s

	sign := int64(1)
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	intPartStr, fracStr, _ := strings.Cut(s, ".")
	if intPartStr == "" && fracStr == "" {
		return 0, fmt.Errorf("parse quantity %q: no digits", raw)
	}
	if !isDigits(intPartStr) || !isDigits(fracStr) {
		return 0, fmt.Errorf("parse quantity %q: invalid syntax", raw)
	}

	if intPartStr == "" {
		intPartStr = "0"
	}
	intPart, err := strconv.ParseInt(intPartStr, 10, 64)
	if err != nil || intPart > maxQuantityUnits {
		return 0, fmt.Errorf("parse quantity %q: out of range", raw)
	}

	fracStr = strings.TrimRight(fracStr, "0")
	if len(fracStr) > quantityDigits {
		return 0, ErrQuantityPrecision
	}
	for len(fracStr) < quantityDigits {
		fracStr += "0"
	}
	frac, _ := strconv.ParseInt(fracStr, 10, 64)

	scaled := intPart * QuantityScale
	if scaled > math.MaxInt64-frac {
		return 0, fmt.Errorf("parse quantity %q: out of range", raw)
	}
	return Quantity(sign * (scaled + frac)), nil
}

// isDigits reports whether s holds ASCII digits only. Empty is allowed.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MinorUnits represents a monetary value in minor currency units (cents, paise).
// Storage: int64 - sufficient for ±922 trillion minor units.
// Example: 123.45 INR → 12345 (paise)
type MinorUnits int64

// ErrPrecisionLoss is returned when a decimal amount cannot be represented
// in minor units of the requested scale without rounding.
var ErrPrecisionLoss = errors.New("amount has more fractional digits than the currency scale")

// ToMinor converts an amount to minor units. It never rounds.
func ToMinor(m Money, scale int32) (MinorUnits, error) {
	shifted := m.Shift(scale)
	if !shifted.IsInteger() {
		return 0, ErrPrecisionLoss
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s out of minor unit range", m.String())
	}
	return MinorUnits(shifted.IntPart()), nil
}

// FromMinor converts minor units back to an exact decimal amount.
func FromMinor(m MinorUnits, scale int32) Money {
	return decimal.New(int64(m), -scale)
}

func (m MinorUnits) IsZero() bool     { return m == 0 }
func (m MinorUnits) IsPositive() bool { return m > 0 }
func (m MinorUnits) IsNegative() bool { return m < 0 }
