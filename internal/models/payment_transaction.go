package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentTransaction statuses. Success, failed and cancelled are terminal.
const (
	PaymentStatusPending              = "pending"
	PaymentStatusPrepared             = "prepared"
	PaymentStatusVerificationRequired = "verification_required"
	PaymentStatusProcessing           = "processing"
	PaymentStatusSuccess              = "success"
	PaymentStatusFailed               = "failed"
	PaymentStatusCancelled            = "cancelled"
)

// PaymentTransaction records a single payment attempt against OCTO.
// ShopTransactionID is the locally generated idempotency key toward the
// gateway; OctoTransactionID is assigned by the gateway and stays nil until
// it responds. Amount/Currency are kept in the order's currency even when the
// gateway settles in UZS.
type PaymentTransaction struct {
	BaseModel
	OrderID uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Order   *Order    `json:"order,omitempty"`

	ShopTransactionID string  `gorm:"uniqueIndex" json:"shop_transaction_id"`
	OctoTransactionID *string `gorm:"index" json:"octo_transaction_id"`
	OctoPaymentID     *string `gorm:"index" json:"octo_payment_id"`

	Status   string          `gorm:"size:50;index" json:"status"`
	Amount   decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	Currency string          `gorm:"size:3" json:"currency"`

	PayURL          string `gorm:"size:500" json:"pay_url"`
	VerificationURL string `gorm:"size:500" json:"verification_url"`
	SecondsLeft     *int   `json:"seconds_left"`

	ErrorCode    string `gorm:"size:100" json:"error_code"`
	ErrorMessage string `json:"error_message"`

	RequestPayload  []byte `gorm:"type:jsonb" json:"request_payload"`
	ResponsePayload []byte `gorm:"type:jsonb" json:"response_payload"`

	CompletedAt *time.Time `json:"completed_at"`
}

// IsTerminal reports whether the transaction reached a final state. Terminal
// transactions are never mutated again.
func (t *PaymentTransaction) IsTerminal() bool {
	switch t.Status {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}
