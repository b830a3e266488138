package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses. Payment outcomes may only move an order out of
// OrderStatusPendingPayment; later fulfillment states are never regressed.
const (
	OrderStatusDraft            = "draft"
	OrderStatusPendingPayment   = "pending_payment"
	OrderStatusPaymentFailed    = "payment_failed"
	OrderStatusPaymentConfirmed = "payment_confirmed"
	OrderStatusFulfillment      = "fulfillment"
	OrderStatusReadyForPickup   = "ready_for_pickup"
	OrderStatusShipped          = "shipped"
	OrderStatusDelivered        = "delivered"
	OrderStatusCancelled        = "cancelled"
	OrderStatusReturned         = "returned"
	OrderStatusRefunded         = "refunded"
)

// Order is a customer order. Amounts are fixed-point decimals in the order's
// display currency; total = subtotal - discount + shipping, recomputed through
// services.RecalculateTotals whenever line items change.
type Order struct {
	BaseModel
	PublicID uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"public_id"`
	Number   string     `gorm:"uniqueIndex" json:"number"`
	UserID   *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User     *User      `json:"user,omitempty"`

	Status   string `gorm:"index" json:"status"`
	Currency string `gorm:"size:3" json:"currency"`

	SubtotalAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"subtotal_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"shipping_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_amount"`
	TotalItems     int             `json:"total_items"`

	PaymentMethod  string `json:"payment_method"`
	ShippingMethod string `json:"shipping_method"`

	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	Notes string `json:"notes"`

	PlacedAt    time.Time  `json:"placed_at"`
	PaidAt      *time.Time `json:"paid_at"`
	FulfilledAt *time.Time `json:"fulfilled_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	Items               []OrderItem          `json:"items,omitempty"`
	Addresses           []OrderAddress       `json:"addresses,omitempty"`
	StatusHistory       []OrderStatusHistory `json:"status_history,omitempty"`
	PaymentTransactions []PaymentTransaction `json:"payment_transactions,omitempty"`
}

// ShippingAddress returns the shipping address if one exists.
func (o *Order) ShippingAddress() *OrderAddress {
	for i := range o.Addresses {
		if o.Addresses[i].AddressType == AddressTypeShipping {
			return &o.Addresses[i]
		}
	}
	return nil
}

// OrderItem is a line item, immutable once the order is placed other than
// through explicit recalculation.
type OrderItem struct {
	BaseModel
	OrderID      uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	ProductID    *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	Color        string          `json:"color"`
	Size         string          `json:"size"`
	PreviewImage string          `json:"preview_image"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(10,2)" json:"unit_price"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_price"`
}

// Address types. An order holds at most one address of each type.
const (
	AddressTypeBilling  = "billing"
	AddressTypeShipping = "shipping"
)

type OrderAddress struct {
	BaseModel
	OrderID      uuid.UUID `gorm:"type:uuid;index:idx_order_address_type,unique" json:"order_id"`
	AddressType  string    `gorm:"size:16;index:idx_order_address_type,unique" json:"address_type"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Country      string    `json:"country"`
	City         string    `json:"city"`
	Region       string    `json:"region"`
	PostalCode   string    `json:"postal_code"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 string    `json:"address_line2"`
	Company      string    `json:"company"`
}

// OrderStatusHistory is an append-only audit record. Rows are never mutated
// or deleted.
type OrderStatusHistory struct {
	BaseModel
	OrderID    uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	FromStatus string     `json:"from_status"`
	ToStatus   string     `json:"to_status"`
	Note       string     `json:"note"`
	Metadata   []byte     `gorm:"type:jsonb" json:"metadata"`
	ChangedBy  *uuid.UUID `gorm:"type:uuid" json:"changed_by"`
}
