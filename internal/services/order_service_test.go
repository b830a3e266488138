package services

import (
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/example/acham/internal/models"
)

func TestIsUzbekistan(t *testing.T) {
	for _, country := range []string{"Uzbekistan", "узбекистан", "O'zbekiston", "ozbekiston", "uzbek", "UZ", "  uz  "} {
		assert.True(t, IsUzbekistan(country), "country %q", country)
	}
	for _, country := range []string{"Germany", "Kazakhstan", "", "uzb"} {
		assert.False(t, IsUzbekistan(country), "country %q", country)
	}
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ACH-\d{14}-[0-9A-Z]{6}$`)

	first := GenerateOrderNumber()
	second := GenerateOrderNumber()

	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second)
}

func TestGenerateShopTransactionID(t *testing.T) {
	number := "ACH-20260828120000-ABC123"

	first := GenerateShopTransactionID(number)
	second := GenerateShopTransactionID(number)

	assert.True(t, strings.HasPrefix(first, number+"-"))
	assert.NotEqual(t, first, second)
}

func TestRecalculateTotals(t *testing.T) {
	order := &models.Order{
		DiscountAmount: decimal.NewFromInt(10),
		ShippingAmount: decimal.NewFromInt(5),
		Items: []models.OrderItem{
			{UnitPrice: decimal.RequireFromString("19.99"), Quantity: 2},
			{UnitPrice: decimal.NewFromInt(50), Quantity: 1, TotalPrice: decimal.NewFromInt(50)},
		},
	}

	RecalculateTotals(order)

	assert.True(t, order.Items[0].TotalPrice.Equal(decimal.RequireFromString("39.98")))
	assert.True(t, order.SubtotalAmount.Equal(decimal.RequireFromString("89.98")))
	assert.Equal(t, 3, order.TotalItems)
	// total = subtotal - discount + shipping
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("84.98")))
}

func TestRecalculateTotalsEmptyOrder(t *testing.T) {
	order := &models.Order{}
	RecalculateTotals(order)

	assert.True(t, order.SubtotalAmount.Equal(decimal.Zero))
	assert.True(t, order.TotalAmount.Equal(decimal.Zero))
	assert.Equal(t, 0, order.TotalItems)
}
