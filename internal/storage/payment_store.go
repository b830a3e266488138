package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/acham/internal/models"
	"github.com/example/acham/internal/services"
)

// PaymentStore is the GORM-backed implementation of services.PaymentStore.
type PaymentStore struct {
	db *gorm.DB
}

// NewPaymentStore wraps a gorm handle.
func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

var _ services.PaymentStore = (*PaymentStore)(nil)

func (s *PaymentStore) OrderByPublicID(ctx context.Context, publicID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Addresses").
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *PaymentStore) OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Addresses").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *PaymentStore) SaveOrder(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Save(order).Error
}

func (s *PaymentStore) AppendStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *PaymentStore) ActiveTransactionForOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("order_id = ? AND status NOT IN ?", orderID, []string{
			models.PaymentStatusSuccess,
			models.PaymentStatusFailed,
			models.PaymentStatusCancelled,
		}).
		Order("created_at DESC").
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *PaymentStore) LatestTransactionForOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *PaymentStore) TransactionByGatewayID(ctx context.Context, orderID uuid.UUID, gatewayID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("order_id = ? AND octo_transaction_id = ?", orderID, gatewayID).
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *PaymentStore) TransactionByShopID(ctx context.Context, shopTransactionID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("shop_transaction_id = ?", shopTransactionID).
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *PaymentStore) FindWebhookTransaction(ctx context.Context, gatewayID, shopTransactionID string) (*models.PaymentTransaction, error) {
	if gatewayID != "" {
		var txn models.PaymentTransaction
		err := s.db.WithContext(ctx).
			Where("octo_transaction_id = ? OR octo_payment_id = ?", gatewayID, gatewayID).
			First(&txn).Error
		if err == nil {
			return &txn, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if shopTransactionID != "" {
		return s.TransactionByShopID(ctx, shopTransactionID)
	}
	return nil, nil
}

func (s *PaymentStore) CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	return s.db.WithContext(ctx).Create(txn).Error
}

func (s *PaymentStore) SaveTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	return s.db.WithContext(ctx).Save(txn).Error
}

// WithTransactionLock re-reads the payment transaction under SELECT FOR
// UPDATE and runs fn inside the surrounding database transaction, so
// concurrent webhook deliveries for the same payment serialize on the row.
func (s *PaymentStore) WithTransactionLock(ctx context.Context, id uuid.UUID, fn func(store services.PaymentStore, txn *models.PaymentTransaction) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.PaymentTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&txn, "id = ?", id).Error; err != nil {
			return err
		}
		return fn(&PaymentStore{db: tx}, &txn)
	})
}
