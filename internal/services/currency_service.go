package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/acham/internal/models"
)

// RateProvider supplies the current USD to UZS exchange rate.
type RateProvider interface {
	USDRate(ctx context.Context) (decimal.Decimal, error)
}

// CurrencyService reads exchange rates and delivery fees. Rates are refreshed
// by an administrative process; this service never mutates them from the
// payment path.
type CurrencyService struct {
	db *gorm.DB
}

func NewCurrencyService(db *gorm.DB) *CurrencyService {
	return &CurrencyService{db: db}
}

// USDRate returns the most recently configured USD rate. There is no default:
// converting financial totals with a stale or guessed rate would corrupt them,
// so a missing rate is a configuration error.
func (s *CurrencyService) USDRate(ctx context.Context) (decimal.Decimal, error) {
	var rate models.CurrencyRate
	if err := s.db.WithContext(ctx).Where("code = ?", "USD").First(&rate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, configurationError("USD exchange rate is not configured", err)
		}
		return decimal.Zero, err
	}
	return rate.Rate, nil
}

// UpsertRate stores or updates the exchange rate for a currency code.
func (s *CurrencyService) UpsertRate(ctx context.Context, code string, rate decimal.Decimal, date time.Time) (*models.CurrencyRate, error) {
	var existing models.CurrencyRate
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&existing).Error
	switch {
	case err == nil:
		existing.Rate = rate
		existing.Date = date
		if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		created := models.CurrencyRate{Code: code, Rate: rate, Date: date}
		if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
			return nil, err
		}
		return &created, nil
	default:
		return nil, err
	}
}

// DeliveryFeeFor returns the active flat delivery fee for a currency, or zero
// when none is configured.
func (s *CurrencyService) DeliveryFeeFor(ctx context.Context, currency string) (decimal.Decimal, error) {
	var fee models.DeliveryFee
	err := s.db.WithContext(ctx).Where("currency = ? AND is_active = ?", currency, true).First(&fee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return fee.Amount, nil
}

// ConvertToUZS converts an amount in USD to UZS at the given rate, rounded to
// two decimal places.
func ConvertToUZS(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}

// ConvertFromUZS converts an amount in UZS back to USD at the given rate,
// rounded to two decimal places.
func ConvertFromUZS(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.DivRound(rate, 2)
}
