package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestConvertToUZS(t *testing.T) {
	rate := decimal.NewFromInt(12650)

	assert.True(t, ConvertToUZS(decimal.NewFromInt(100), rate).
		Equal(decimal.RequireFromString("1265000")))
	assert.True(t, ConvertToUZS(decimal.RequireFromString("19.99"), rate).
		Equal(decimal.RequireFromString("252873.5")))
	assert.True(t, ConvertToUZS(decimal.Zero, rate).Equal(decimal.Zero))
}

func TestConvertFromUZS(t *testing.T) {
	rate := decimal.NewFromInt(12650)

	assert.True(t, ConvertFromUZS(decimal.RequireFromString("1265000"), rate).
		Equal(decimal.NewFromInt(100)))
}

func TestConversionRoundTripWithinOneCent(t *testing.T) {
	rate := decimal.RequireFromString("12650.4321")
	cent := decimal.RequireFromString("0.01")

	for _, amount := range []string{"0.01", "1", "19.99", "100", "1234.56", "99999.99"} {
		usd := decimal.RequireFromString(amount)
		back := ConvertFromUZS(ConvertToUZS(usd, rate), rate)
		diff := back.Sub(usd).Abs()
		assert.True(t, diff.LessThanOrEqual(cent), "amount %s drifted by %s", amount, diff)
	}
}
