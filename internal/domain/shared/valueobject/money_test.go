package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"90", "90"},
		{"10.005", "10.01"},
		{"10.004", "10"},
		{"2.675", "2.68"},
		{"-2.675", "-2.68"},
		{"0.125", "0.13"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundMoney(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseMoney(t *testing.T) {
	d, err := ParseMoney("1180.50")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1180.5")))

	_, err = ParseMoney("1.005")
	assert.Error(t, err)

	_, err = ParseMoney("abc")
	assert.Error(t, err)
}

func TestMoneyEqual(t *testing.T) {
	assert.True(t, MoneyEqual(decimal.RequireFromString("680.00"), decimal.NewFromInt(680)))
	assert.False(t, MoneyEqual(decimal.RequireFromString("680.01"), decimal.NewFromInt(680)))
}

func TestSumMoney(t *testing.T) {
	got := SumMoney(decimal.RequireFromString("0.01"), decimal.RequireFromString("0.02"))
	assert.True(t, got.Equal(decimal.RequireFromString("0.03")))
	assert.True(t, SumMoney().IsZero())
}
