package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyRate stores the exchange rate for one currency against UZS
// (1 unit of Code = Rate UZS). Rows are refreshed by an administrative
// process; the payment flow only reads them, latest value wins.
type CurrencyRate struct {
	BaseModel
	Code string          `gorm:"size:3;uniqueIndex" json:"code"`
	Rate decimal.Decimal `gorm:"type:numeric(12,4)" json:"rate"`
	Date time.Time       `gorm:"type:date" json:"date"`
}

// DeliveryFee is the flat shipping fee charged per currency.
type DeliveryFee struct {
	BaseModel
	Currency string          `gorm:"size:3;uniqueIndex" json:"currency"`
	Amount   decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	IsActive bool            `gorm:"default:true" json:"is_active"`
}
