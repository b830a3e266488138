package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/acham/internal/models"
)

// PaymentStore is the persistence surface the payment orchestrator needs.
// Lookup methods return (nil, nil) when no row matches. The GORM
// implementation lives in internal/storage.
type PaymentStore interface {
	// OrderByPublicID loads an order by its opaque public id, scoped to the
	// owning user, with items and addresses preloaded.
	OrderByPublicID(ctx context.Context, publicID, userID uuid.UUID) (*models.Order, error)
	OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order) error
	AppendStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error

	// ActiveTransactionForOrder returns the order's non-terminal payment
	// transaction, if any. At most one exists at a time.
	ActiveTransactionForOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error)
	LatestTransactionForOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error)
	TransactionByGatewayID(ctx context.Context, orderID uuid.UUID, gatewayID string) (*models.PaymentTransaction, error)
	TransactionByShopID(ctx context.Context, shopTransactionID string) (*models.PaymentTransaction, error)
	// FindWebhookTransaction locates a transaction by gateway id first,
	// falling back to the shop transaction id.
	FindWebhookTransaction(ctx context.Context, gatewayID, shopTransactionID string) (*models.PaymentTransaction, error)

	CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error
	SaveTransaction(ctx context.Context, txn *models.PaymentTransaction) error

	// WithTransactionLock runs fn inside one storage transaction holding an
	// exclusive row lock on the payment transaction, re-read under the lock.
	// All writes made through the passed store commit or roll back as a unit.
	WithTransactionLock(ctx context.Context, id uuid.UUID, fn func(store PaymentStore, txn *models.PaymentTransaction) error) error
}
