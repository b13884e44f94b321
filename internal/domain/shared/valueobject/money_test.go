package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromFloat(19.99), USD)
	require.NoError(t, err)
	assert.Equal(t, USD, m.Currency())
	assert.Equal(t, "19.99 USD", m.String())

	_, err = NewMoney(decimal.Zero, "")
	assert.Error(t, err)
}

func TestNewMoneyUSDFromString(t *testing.T) {
	m, err := NewMoneyUSDFromString("12.50")
	require.NoError(t, err)
	assert.Equal(t, "12.50 USD", m.String())

	_, err = NewMoneyUSDFromString("not-a-number")
	assert.Error(t, err)
}

func TestMoney_Add(t *testing.T) {
	a, _ := NewMoneyUSDFromString("10.25")
	b, _ := NewMoneyUSDFromString("5.75")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "16.00 USD", sum.String())

	eur := Zero(EUR)
	_, err = a.Add(eur)
	assert.Error(t, err, "mixing currencies must fail")
}

func TestMoney_Mul(t *testing.T) {
	price, _ := NewMoneyUSDFromString("12.50")
	total := price.Mul(3)
	assert.Equal(t, "37.50 USD", total.String())
}

func TestMoney_MinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"19.99", 1999},
		{"0.01", 1},
		{"100", 10000},
		{"0", 0},
	}
	for _, tt := range tests {
		m, err := NewMoneyUSDFromString(tt.amount)
		require.NoError(t, err)
		assert.Equal(t, tt.want, m.MinorUnits(), "amount %s", tt.amount)
	}
}

func TestMoney_Predicates(t *testing.T) {
	zero := ZeroUSD()
	assert.True(t, zero.IsZero())
	assert.False(t, zero.IsPositive())
	assert.False(t, zero.IsNegative())

	neg := NewMoneyUSD(decimal.NewFromInt(-5))
	assert.True(t, neg.IsNegative())

	pos, _ := NewMoneyUSDFromString("0.01")
	assert.True(t, pos.IsPositive())
}

func TestMoney_Equals(t *testing.T) {
	a, _ := NewMoneyUSDFromString("10.00")
	b := NewMoneyUSD(decimal.NewFromInt(10))
	assert.True(t, a.Equals(b), "10.00 and 10 are the same amount")
	assert.False(t, a.Equals(Zero(EUR)))
}
