package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    Quantity
		wantErr bool
	}{
		{"200", NewQuantity(200), false},
		{"1.5", Quantity(15_000), false},
		{"0.0001", Quantity(1), false},
		{"-3.25", Quantity(-32_500), false},
		{"2.50000", Quantity(25_000), false},
		{"0.00001", 0, true},
		{"1e3", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{".5", Quantity(5_000), false},
		{"+7", NewQuantity(7), false},
		{"922337203685477.5807", Quantity(math.MaxInt64), false},
		{"922337203685477.5808", 0, true},
		{"1000000000000000", 0, true},
		{"99999999999999999999", 0, true},
		{"1.-5", 0, true},
		{"1.+5", 0, true},
		{"--5", 0, true},
		{"-+5", 0, true},
		{"1.2.3", 0, true},
		{".", 0, true},
		{"-", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuantity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantity_JSON(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`"45.5"`), &q))
	assert.Equal(t, "45.5000", q.String())

	require.NoError(t, json.Unmarshal([]byte(`150`), &q))
	assert.Equal(t, NewQuantity(150), q)

	out, err := json.Marshal(NewQuantity(5))
	require.NoError(t, err)
	assert.JSONEq(t, `5.0000`, string(out))
}

func TestQuantity_Decimal(t *testing.T) {
	q := MustQuantity("12.3456")
	assert.True(t, q.Decimal().Equal(decimal.RequireFromString("12.3456")))

	back, err := NewQuantityFromDecimal(q.Decimal())
	require.NoError(t, err)
	assert.Equal(t, q, back)

	_, err = NewQuantityFromDecimal(decimal.RequireFromString("1.23456"))
	assert.ErrorIs(t, err, ErrQuantityPrecision)
}

func TestMinorUnits_RoundTrip(t *testing.T) {
	m, err := ToMinor(MustMoney("317000.05"), 2)
	require.NoError(t, err)
	assert.Equal(t, MinorUnits(31_700_005), m)
	assert.True(t, FromMinor(m, 2).Equal(MustMoney("317000.05")))

	_, err = ToMinor(MustMoney("10.005"), 2)
	assert.ErrorIs(t, err, ErrPrecisionLoss)

	sat, err := ToMinor(MustMoney("0.001"), 8)
	require.NoError(t, err)
	assert.Equal(t, MinorUnits(100_000), sat)
}

func TestRoundCurrency_HalfUp(t *testing.T) {
	assert.Equal(t, "1.01", FormatMoney(RoundCurrency(MustMoney("1.005"))))
	assert.Equal(t, "1.00", FormatMoney(RoundCurrency(MustMoney("1.0049"))))
	assert.Equal(t, "2.50", FormatMoney(RoundCurrency(MustMoney("2.495"))))
}

func TestNewQuantity_OutOfRange(t *testing.T) {
	assert.Equal(t, Quantity(922_337_203_685_477*QuantityScale), NewQuantity(922_337_203_685_477))
	assert.Panics(t, func() { NewQuantity(1_000_000_000_000_000) })
	assert.Panics(t, func() { NewQuantity(-1_000_000_000_000_000) })
}
