package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/acham/internal/middleware"
	"github.com/example/acham/internal/models"
	"github.com/example/acham/internal/octo"
	"github.com/example/acham/internal/services"
	"github.com/example/acham/internal/utils"
)

// PaymentHandler exposes the payment lifecycle over HTTP: initiation, card
// confirmation, OTP verification, status polling and the gateway webhook.
type PaymentHandler struct {
	db       *gorm.DB
	payments *services.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(db *gorm.DB, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{db: db, payments: payments}
}

type initiateRequest struct {
	Language string `json:"language"`
}

// Initiate starts (or resumes) payment for an order the caller owns.
func (h *PaymentHandler) Initiate(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req initiateRequest
	_ = c.BodyParser(&req)

	txn, err := h.payments.Initiate(c.UserContext(), orderID, userID, req.Language)
	if err != nil {
		return paymentErrorResponse(err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"transaction": transactionResponse(txn),
	})
}

type confirmRequest struct {
	TransactionID  string `json:"transaction_id"`
	CardNumber     string `json:"card_number"`
	Expire         string `json:"expire"`
	CardholderName string `json:"cardholder_name"`
	Language       string `json:"language"`
}

// Confirm submits card details for a prepared transaction.
func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.TransactionID == "" || req.CardNumber == "" || req.Expire == "" {
		return fiber.NewError(fiber.StatusBadRequest, "transaction_id, card_number and expire are required")
	}

	card := octo.CardData{
		Number:         req.CardNumber,
		Expire:         req.Expire,
		CardholderName: req.CardholderName,
	}

	txn, err := h.payments.ConfirmCard(c.UserContext(), orderID, userID, req.TransactionID, card, req.Language)
	if err != nil {
		return paymentErrorResponse(err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"transaction": transactionResponse(txn),
	})
}

type verifyOTPRequest struct {
	TransactionID string `json:"transaction_id"`
	Code          string `json:"code"`
}

// VerifyOTP forwards the cardholder's OTP code.
func (h *PaymentHandler) VerifyOTP(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.TransactionID == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "transaction_id and code are required")
	}

	txn, err := h.payments.VerifyOTP(c.UserContext(), orderID, userID, req.TransactionID, req.Code)
	if err != nil {
		return paymentErrorResponse(err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"transaction": transactionResponse(txn),
	})
}

// Status returns the latest payment transaction for the order.
func (h *PaymentHandler) Status(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	txn, err := h.payments.Status(c.UserContext(), orderID, userID)
	if err != nil {
		return paymentErrorResponse(err)
	}
	if txn == nil {
		return c.JSON(fiber.Map{
			"success":     true,
			"transaction": nil,
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"transaction": transactionResponse(txn),
	})
}

// Webhook receives asynchronous payment notifications from OCTO. The gateway
// does not sign deliveries, so the endpoint is unauthenticated; the handler
// only trusts the payload as far as locating a known transaction. Always
// answers {"status":"ok"} on success so the gateway stops retrying.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	var payload map[string]any
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"error":  "invalid JSON body",
		})
	}

	if _, err := h.payments.ReconcileWebhook(c.UserContext(), payload); err != nil {
		switch services.ErrorKindOf(err) {
		case services.ErrKindMissingIdentifier:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status": "error",
				"error":  "no transaction identifier in payload",
			})
		case services.ErrKindTransactionNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"status": "error",
				"error":  "unknown transaction",
			})
		}
		return err
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// ListTransactions is an administrative listing of payment transactions.
func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := h.db.Model(&models.PaymentTransaction{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var txns []models.PaymentTransaction
	if err := query.Order("created_at DESC").Limit(p.Limit).Offset(p.Offset).Find(&txns).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"transactions": txns,
		"total":        total,
		"page":         p.Page,
		"limit":        p.Limit,
	})
}

func transactionResponse(txn *models.PaymentTransaction) fiber.Map {
	return fiber.Map{
		"id":                  txn.ID,
		"shop_transaction_id": txn.ShopTransactionID,
		"octo_transaction_id": txn.OctoTransactionID,
		"status":              txn.Status,
		"amount":              txn.Amount,
		"currency":            txn.Currency,
		"pay_url":             txn.PayURL,
		"verification_url":    txn.VerificationURL,
		"seconds_left":        txn.SecondsLeft,
		"error_code":          txn.ErrorCode,
		"error_message":       txn.ErrorMessage,
	}
}

// paymentErrorResponse maps orchestration errors onto HTTP statuses.
func paymentErrorResponse(err error) error {
	switch services.ErrorKindOf(err) {
	case services.ErrKindOrderNotFound, services.ErrKindTransactionNotFound:
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case services.ErrKindInvalidOrderState:
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case services.ErrKindGatewayRejected:
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case services.ErrKindGatewayUnavailable:
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case services.ErrKindConfiguration:
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case services.ErrKindMissingIdentifier:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}
