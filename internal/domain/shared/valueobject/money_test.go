package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(100), KGS)
	require.NoError(t, err)
	assert.Equal(t, KGS, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))

	_, err = NewMoney(decimal.NewFromInt(100), "")
	assert.Error(t, err)
}

func TestNewMoneyFromString(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"30000.00", false},
		{"0.01", false},
		{"-5.50", false},
		{"abc", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.input, KGS)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, m.Amount().StringFixed(2))
		})
	}
}

func TestMoney_AddSubtract(t *testing.T) {
	a := NewMoneyKGSFromFloat(100.50)
	b := NewMoneyKGSFromFloat(49.50)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "150.00", sum.StringFixed())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "51.00", diff.StringFixed())
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	a := NewMoneyKGSFromFloat(10)
	b, err := NewMoney(decimal.NewFromInt(10), USD)
	require.NoError(t, err)

	_, err = a.Add(b)
	assert.Error(t, err)
	_, err = a.Subtract(b)
	assert.Error(t, err)
	_, err = a.LessThan(b)
	assert.Error(t, err)
}

func TestMoney_Min(t *testing.T) {
	a := NewMoneyKGSFromFloat(120)
	b := NewMoneyKGSFromFloat(100)

	m, err := a.Min(b)
	require.NoError(t, err)
	assert.True(t, m.Equals(b))

	m, err = b.Min(a)
	require.NoError(t, err)
	assert.True(t, m.Equals(b))
}

func TestMoney_Signs(t *testing.T) {
	assert.True(t, ZeroKGS().IsZero())
	assert.True(t, NewMoneyKGSFromFloat(1).IsPositive())
	assert.True(t, NewMoneyKGSFromFloat(1).Negate().IsNegative())
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m, err := NewMoneyFromString("30000.00", KGS)
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	// amounts travel as decimal strings
	assert.JSONEq(t, `{"amount":"30000","currency":"KGS"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equals(back))
}

func TestCurrency_IsValid(t *testing.T) {
	assert.True(t, KGS.IsValid())
	assert.True(t, USD.IsValid())
	assert.True(t, RUB.IsValid())
	assert.True(t, EUR.IsValid())
	assert.False(t, Currency("CHF").IsValid())
	assert.False(t, Currency("").IsValid())
}
