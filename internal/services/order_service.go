package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"

	"github.com/example/acham/internal/models"
)

// uzbekistanVariants are the shipping-country spellings that select UZS
// pricing and the local payment instruments.
var uzbekistanVariants = map[string]bool{
	"uzbekistan":  true,
	"узбекистан":  true,
	"o'zbekiston": true,
	"ozbekiston":  true,
	"uzbek":       true,
	"uz":          true,
}

// IsUzbekistan reports whether a shipping country name matches one of the
// accepted Uzbekistan variants.
func IsUzbekistan(country string) bool {
	return uzbekistanVariants[strings.ToLower(strings.TrimSpace(country))]
}

var orderNumberSuffix = mustNanoid()

func mustNanoid() func() string {
	gen, err := nanoid.CustomASCII("0123456789ABCDEFGHJKMNPQRSTVWXYZ", 6)
	if err != nil {
		log.Fatalf("nanoid generator init failed: %v", err)
	}
	return gen
}

// GenerateOrderNumber produces a human-readable order number. Generated once
// per order; never regenerated.
func GenerateOrderNumber() string {
	return fmt.Sprintf("ACH-%s-%s", time.Now().Format("20060102150405"), orderNumberSuffix())
}

// GenerateShopTransactionID produces the idempotency key sent to the gateway
// for one payment attempt. Distinct per attempt so retries after a failed
// attempt do not collide at the gateway.
func GenerateShopTransactionID(orderNumber string) string {
	return orderNumber + "-" + orderNumberSuffix()
}

// RecalculateTotals recomputes subtotal, item count and total from the
// order's loaded line items: total = subtotal - discount + shipping. Callers
// that mutate line items invoke this explicitly; nothing recomputes totals
// behind the caller's back.
func RecalculateTotals(order *models.Order) {
	subtotal := decimal.Zero
	totalItems := 0
	for i := range order.Items {
		item := &order.Items[i]
		if item.TotalPrice.IsZero() && !item.UnitPrice.IsZero() {
			item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		subtotal = subtotal.Add(item.TotalPrice)
		totalItems += item.Quantity
	}

	order.SubtotalAmount = subtotal
	order.TotalItems = totalItems
	order.TotalAmount = subtotal.Sub(order.DiscountAmount).Add(order.ShippingAmount)
}
