package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/acham/internal/models"
	"github.com/example/acham/internal/services"
)

// RatesHandler manages exchange rates and delivery fees. Rates feed the
// payment conversion path, so writes validate strictly.
type RatesHandler struct {
	db       *gorm.DB
	currency *services.CurrencyService
}

// NewRatesHandler constructs a RatesHandler.
func NewRatesHandler(db *gorm.DB, currency *services.CurrencyService) *RatesHandler {
	return &RatesHandler{db: db, currency: currency}
}

// ListRates returns all configured exchange rates.
func (h *RatesHandler) ListRates(c *fiber.Ctx) error {
	var rates []models.CurrencyRate
	if err := h.db.Order("code").Find(&rates).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"rates":   rates,
	})
}

type upsertRateRequest struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
	Date string          `json:"date"`
}

// UpsertRate creates or updates the exchange rate for a currency code.
func (h *RatesHandler) UpsertRate(c *fiber.Ctx) error {
	var req upsertRateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if len(code) != 3 {
		return fiber.NewError(fiber.StatusBadRequest, "code must be a 3-letter currency code")
	}
	if !req.Rate.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "rate must be positive")
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		date = parsed
	}

	rate, err := h.currency.UpsertRate(c.UserContext(), code, req.Rate, date)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"rate":    rate,
	})
}

// ListDeliveryFees returns all configured delivery fees.
func (h *RatesHandler) ListDeliveryFees(c *fiber.Ctx) error {
	var fees []models.DeliveryFee
	if err := h.db.Order("currency").Find(&fees).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"fees":    fees,
	})
}

type upsertDeliveryFeeRequest struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	IsActive *bool           `json:"is_active"`
}

// UpsertDeliveryFee creates or updates the flat delivery fee for a currency.
func (h *RatesHandler) UpsertDeliveryFee(c *fiber.Ctx) error {
	var req upsertDeliveryFeeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return fiber.NewError(fiber.StatusBadRequest, "currency must be a 3-letter code")
	}
	if req.Amount.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	var fee models.DeliveryFee
	err := h.db.Where("currency = ?", currency).First(&fee).Error
	switch {
	case err == nil:
		fee.Amount = req.Amount
		fee.IsActive = active
		if err := h.db.Save(&fee).Error; err != nil {
			return err
		}
	case err == gorm.ErrRecordNotFound:
		fee = models.DeliveryFee{Currency: currency, Amount: req.Amount, IsActive: active}
		if err := h.db.Create(&fee).Error; err != nil {
			return err
		}
	default:
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"fee":     fee,
	})
}
