package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/acham/internal/metrics"
	"github.com/example/acham/internal/models"
	"github.com/example/acham/internal/octo"
)

// GatewayClient is the capability set the orchestrator needs from OCTO.
type GatewayClient interface {
	PreparePayment(ctx context.Context, req octo.PrepareRequest) (*octo.Result, error)
	Pay(ctx context.Context, transactionID string, card octo.CardData) (*octo.Result, error)
	VerificationInfo(ctx context.Context, transactionID string) (*octo.Result, error)
	CheckSMSKey(ctx context.Context, transactionID, smsKey string) (*octo.Result, error)
}

// OrderConfirmedEvent is emitted downstream after an order is confirmed.
type OrderConfirmedEvent struct {
	OrderID       string
	Number        string
	Amount        decimal.Decimal
	Currency      string
	TransactionID string
}

// EventPublisher delivers order events to downstream consumers,
// fire-and-forget.
type EventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, event OrderConfirmedEvent) error
}

// PaymentConfig carries the orchestrator's runtime settings, injected at
// construction.
type PaymentConfig struct {
	FrontendURL string
	NotifyURL   string
	// Sandbox enables the degraded verification-info fallback; production
	// treats a missing or expired verification window as a hard failure.
	Sandbox bool
}

// Default fiscalization codes for basket lines.
const (
	defaultSPIC        = "00305001001000000"
	defaultPackageCode = "1425207"
	defaultNDS         = 1
)

// PaymentService drives the payment state machine: it initiates transactions
// with OCTO, advances them through card confirmation and OTP verification,
// and reconciles asynchronous webhook notifications against order state.
type PaymentService struct {
	store    PaymentStore
	gateway  GatewayClient
	rates    RateProvider
	events   EventPublisher
	telegram *TelegramService
	cfg      PaymentConfig
}

// NewPaymentService constructs the orchestrator. events and telegram may be
// nil; notification delivery is best-effort.
func NewPaymentService(store PaymentStore, gateway GatewayClient, rates RateProvider, events EventPublisher, telegram *TelegramService, cfg PaymentConfig) *PaymentService {
	return &PaymentService{
		store:    store,
		gateway:  gateway,
		rates:    rates,
		events:   events,
		telegram: telegram,
		cfg:      cfg,
	}
}

// Initiate registers a payment for the order with the gateway. Re-initiating
// while a transaction is still in flight returns that transaction unchanged.
// The order status is never mutated here; outcomes arrive via webhook.
func (s *PaymentService) Initiate(ctx context.Context, orderPublicID, userID uuid.UUID, language string) (*models.PaymentTransaction, error) {
	order, err := s.store.OrderByPublicID(ctx, orderPublicID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderNotFound()
	}

	if order.Status != models.OrderStatusPendingPayment {
		return nil, invalidOrderState(order.Status)
	}

	existing, err := s.store.ActiveTransactionForOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	totalSum, basket, err := s.settlementAmounts(ctx, order)
	if err != nil {
		return nil, err
	}

	methods := paymentMethodsFor(order.ShippingAddress())
	shopTransactionID := GenerateShopTransactionID(order.Number)
	language = validLanguage(language)

	userData := octo.UserData{
		Phone: order.CustomerPhone,
		Email: order.CustomerEmail,
	}
	if order.UserID != nil {
		userData.UserID = order.UserID.String()
	}

	prepareReq := octo.PrepareRequest{
		ShopTransactionID: shopTransactionID,
		TotalSum:          totalSum,
		Currency:          "UZS",
		Description:       "Order " + order.Number,
		Basket:            basket,
		UserData:          userData,
		ReturnURL:         s.cfg.FrontendURL + "/profile?order=" + order.PublicID.String(),
		NotifyURL:         s.cfg.NotifyURL,
		Language:          language,
		PaymentMethods:    methods,
	}

	requestPayload := marshalAudit(map[string]any{
		"shop_transaction_id": shopTransactionID,
		"total_sum":           totalSum,
		"currency":            "UZS",
		"user_data":           userData,
		"basket":              basket,
		"payment_methods":     methods,
	})

	res, err := s.gateway.PreparePayment(ctx, prepareReq)
	if err != nil {
		if errors.Is(err, octo.ErrNotConfigured) {
			return nil, configurationError("payment gateway credentials are not configured", err)
		}
		txn := s.newTransaction(order, shopTransactionID, requestPayload)
		txn.Status = models.PaymentStatusFailed
		txn.ErrorMessage = err.Error()
		if createErr := s.store.CreateTransaction(ctx, txn); createErr != nil {
			log.Printf("[Payment] failed to persist failed transaction for order %s: %v", order.Number, createErr)
		}
		metrics.PaymentsInitiated.WithLabelValues("failed").Inc()
		return nil, gatewayUnavailable(err)
	}

	switch {
	case res.Kind == octo.KindPrepared:
		txn := s.newTransaction(order, shopTransactionID, requestPayload)
		txn.Status = models.PaymentStatusPrepared
		txn.PayURL = res.PayURL
		txn.ResponsePayload = res.Raw
		if res.TransactionID != "" {
			txn.OctoTransactionID = strPtr(res.TransactionID)
		}
		if err := s.store.CreateTransaction(ctx, txn); err != nil {
			return nil, err
		}
		metrics.PaymentsInitiated.WithLabelValues("prepared").Inc()
		return txn, nil

	case res.Duplicate:
		// The gateway saw this shop_transaction_id before; recover the local
		// record instead of erroring.
		txn, err := s.store.TransactionByShopID(ctx, shopTransactionID)
		if err != nil {
			return nil, err
		}
		if txn != nil {
			return txn, nil
		}
		txn = s.newTransaction(order, shopTransactionID, requestPayload)
		txn.Status = models.PaymentStatusPrepared
		txn.ResponsePayload = res.Raw
		if res.TransactionID != "" {
			txn.OctoTransactionID = strPtr(res.TransactionID)
		}
		if err := s.store.CreateTransaction(ctx, txn); err != nil {
			return nil, err
		}
		metrics.PaymentsInitiated.WithLabelValues("prepared").Inc()
		return txn, nil

	default:
		txn := s.newTransaction(order, shopTransactionID, requestPayload)
		txn.Status = models.PaymentStatusFailed
		txn.ErrorCode = res.ErrorCode
		txn.ErrorMessage = res.ErrorMessage
		txn.ResponsePayload = res.Raw
		if err := s.store.CreateTransaction(ctx, txn); err != nil {
			return nil, err
		}
		metrics.PaymentsInitiated.WithLabelValues("failed").Inc()
		return nil, gatewayRejected(res.ErrorCode, res.ErrorMessage)
	}
}

// ConfirmCard submits card details for a prepared transaction. A gateway
// rejection is terminal for the transaction; the OTP branch taken depends on
// the card scheme the gateway reports.
func (s *PaymentService) ConfirmCard(ctx context.Context, orderPublicID, userID uuid.UUID, gatewayTransactionID string, card octo.CardData, language string) (*models.PaymentTransaction, error) {
	txn, err := s.ownedTransaction(ctx, orderPublicID, userID, gatewayTransactionID)
	if err != nil {
		return nil, err
	}

	// Card data never touches the audit payload; only the masked tail.
	txn.RequestPayload = mergeAudit(txn.RequestPayload, map[string]any{"card_tail": cardTail(card.Number)})

	res, err := s.gateway.Pay(ctx, gatewayTransactionID, card)
	if err != nil {
		txn.Status = models.PaymentStatusFailed
		txn.ErrorMessage = err.Error()
		s.saveOrLog(ctx, txn)
		return nil, gatewayUnavailable(err)
	}

	txn.ResponsePayload = res.Raw

	switch res.Kind {
	case octo.KindRejected:
		txn.Status = models.PaymentStatusFailed
		txn.ErrorCode = res.ErrorCode
		txn.ErrorMessage = res.ErrorMessage
		if err := s.store.SaveTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return nil, gatewayRejected(res.ErrorCode, res.ErrorMessage)

	case octo.KindOTPRequired:
		txn.Status = models.PaymentStatusVerificationRequired
		txn.VerificationURL = res.VerificationURL
		if txn.VerificationURL == "" {
			txn.VerificationURL = otpFormURL(gatewayTransactionID, language)
		}
		if err := s.store.SaveTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return txn, nil

	default:
		// Local instrument flow: payment accepted, OTP arrives via SMS.
		txn.Status = models.PaymentStatusProcessing
		if err := s.store.SaveTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return s.attachVerificationInfo(ctx, txn, gatewayTransactionID)
	}
}

// attachVerificationInfo asks the gateway for the OTP window. In sandbox a
// failure degrades to a synthesized default window; in production it is a
// hard failure.
func (s *PaymentService) attachVerificationInfo(ctx context.Context, txn *models.PaymentTransaction, gatewayTransactionID string) (*models.PaymentTransaction, error) {
	res, err := s.gateway.VerificationInfo(ctx, gatewayTransactionID)
	switch {
	case err != nil:
		if s.cfg.Sandbox {
			return s.degradedVerification(ctx, txn, err)
		}
		txn.Status = models.PaymentStatusFailed
		txn.ErrorMessage = err.Error()
		s.saveOrLog(ctx, txn)
		return nil, gatewayUnavailable(err)

	case res.Kind == octo.KindRejected:
		if s.cfg.Sandbox {
			return s.degradedVerification(ctx, txn, errors.New(res.ErrorMessage))
		}
		txn.Status = models.PaymentStatusFailed
		txn.ErrorCode = res.ErrorCode
		txn.ErrorMessage = res.ErrorMessage
		if err := s.store.SaveTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return nil, gatewayRejected(res.ErrorCode, res.ErrorMessage)
	}

	if res.SecondsLeft == 0 && !s.cfg.Sandbox {
		txn.Status = models.PaymentStatusFailed
		txn.ErrorMessage = "verification window expired"
		if err := s.store.SaveTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return nil, gatewayRejected("", "verification window expired")
	}

	txn.Status = models.PaymentStatusVerificationRequired
	if res.PaymentID != "" {
		txn.OctoPaymentID = strPtr(res.PaymentID)
	}
	txn.VerificationURL = res.VerificationURL
	txn.SecondsLeft = intPtr(res.SecondsLeft)
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *PaymentService) degradedVerification(ctx context.Context, txn *models.PaymentTransaction, cause error) (*models.PaymentTransaction, error) {
	log.Printf("[Payment] verification info unavailable in sandbox, defaulting OTP window: %v", cause)
	txn.Status = models.PaymentStatusVerificationRequired
	txn.SecondsLeft = intPtr(300)
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// VerifyOTP forwards the OTP code. On rejection the error is persisted but
// the status stays put: the authoritative outcome arrives via webhook.
func (s *PaymentService) VerifyOTP(ctx context.Context, orderPublicID, userID uuid.UUID, gatewayTransactionID, code string) (*models.PaymentTransaction, error) {
	txn, err := s.ownedTransaction(ctx, orderPublicID, userID, gatewayTransactionID)
	if err != nil {
		return nil, err
	}

	res, err := s.gateway.CheckSMSKey(ctx, gatewayTransactionID, code)
	if err != nil {
		txn.ErrorMessage = err.Error()
		s.saveOrLog(ctx, txn)
		return nil, gatewayUnavailable(err)
	}

	txn.ResponsePayload = res.Raw

	if res.Kind == octo.KindRejected {
		txn.ErrorCode = res.ErrorCode
		txn.ErrorMessage = res.ErrorMessage
		if err := s.store.SaveTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return nil, gatewayRejected(res.ErrorCode, res.ErrorMessage)
	}

	txn.Status = models.PaymentStatusProcessing
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// Status returns the latest payment transaction for the order, or nil when
// none exists.
func (s *PaymentService) Status(ctx context.Context, orderPublicID, userID uuid.UUID) (*models.PaymentTransaction, error) {
	order, err := s.store.OrderByPublicID(ctx, orderPublicID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderNotFound()
	}
	return s.store.LatestTransactionForOrder(ctx, order.ID)
}

// ReconcileResult reports what a webhook delivery did.
type ReconcileResult struct {
	Transaction    *models.PaymentTransaction
	Outcome        string // success, failed, ignored, duplicate
	OrderConfirmed bool
}

// ReconcileWebhook applies an asynchronous gateway notification. The
// transaction, order and history mutation is one atomic unit under a row
// lock, and repeated deliveries of an already-applied outcome are no-ops:
// no second history row, no second notification dispatch.
func (s *PaymentService) ReconcileWebhook(ctx context.Context, payload map[string]any) (*ReconcileResult, error) {
	gatewayID := firstPayloadString(payload, "octo_payment_UUID", "id", "transaction_id")
	shopID := firstPayloadString(payload, "shop_transaction_id")
	if gatewayID == "" && shopID == "" {
		metrics.WebhooksReceived.WithLabelValues("error").Inc()
		return nil, missingIdentifier()
	}

	txn, err := s.store.FindWebhookTransaction(ctx, gatewayID, shopID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		metrics.WebhooksReceived.WithLabelValues("error").Inc()
		return nil, transactionNotFound()
	}

	outcome := classifyWebhookOutcome(payload)
	if outcome == webhookOutcomeUnknown {
		log.Printf("[Webhook] unrecognized payload for transaction %s, leaving state untouched", txn.ShopTransactionID)
		metrics.WebhooksReceived.WithLabelValues("ignored").Inc()
		return &ReconcileResult{Transaction: txn, Outcome: "ignored"}, nil
	}

	result := &ReconcileResult{Outcome: string(outcome)}
	var confirmedOrder *models.Order
	var confirmedTxn *models.PaymentTransaction

	err = s.store.WithTransactionLock(ctx, txn.ID, func(store PaymentStore, locked *models.PaymentTransaction) error {
		result.Transaction = locked

		if locked.IsTerminal() {
			log.Printf("[Webhook] transaction %s already %s, duplicate delivery ignored", locked.ShopTransactionID, locked.Status)
			metrics.WebhookDuplicates.Inc()
			result.Outcome = "duplicate"
			return nil
		}

		order, err := store.OrderByID(ctx, locked.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return transactionNotFound()
		}

		if err := s.redenominate(ctx, locked, order, payload); err != nil {
			return err
		}

		locked.ResponsePayload = marshalAudit(payload)
		now := time.Now()
		locked.CompletedAt = &now

		switch outcome {
		case webhookOutcomeSuccess:
			locked.Status = models.PaymentStatusSuccess
			if err := store.SaveTransaction(ctx, locked); err != nil {
				return err
			}
			if order.Status != models.OrderStatusPendingPayment {
				log.Printf("[Webhook] order %s is %s, payment success recorded without status change", order.Number, order.Status)
				return nil
			}
			order.Status = models.OrderStatusPaymentConfirmed
			order.PaidAt = &now
			if err := store.SaveOrder(ctx, order); err != nil {
				return err
			}
			if err := store.AppendStatusHistory(ctx, &models.OrderStatusHistory{
				OrderID:    order.ID,
				FromStatus: models.OrderStatusPendingPayment,
				ToStatus:   models.OrderStatusPaymentConfirmed,
				Note:       "Payment confirmed via OCTO",
				Metadata:   marshalAudit(map[string]any{"payment_transaction_id": locked.ID.String()}),
			}); err != nil {
				return err
			}
			confirmedOrder = order
			confirmedTxn = locked
			result.OrderConfirmed = true
			return nil

		default:
			locked.Status = models.PaymentStatusFailed
			locked.ErrorCode = firstPayloadString(payload, "error")
			locked.ErrorMessage = firstPayloadString(payload, "errMessage", "errorMessage", "error_message")
			if locked.ErrorMessage == "" {
				locked.ErrorMessage = "Payment failed"
			}
			if err := store.SaveTransaction(ctx, locked); err != nil {
				return err
			}
			if order.Status != models.OrderStatusPendingPayment {
				log.Printf("[Webhook] order %s is %s, payment failure recorded without status change", order.Number, order.Status)
				return nil
			}
			order.Status = models.OrderStatusPaymentFailed
			if err := store.SaveOrder(ctx, order); err != nil {
				return err
			}
			return store.AppendStatusHistory(ctx, &models.OrderStatusHistory{
				OrderID:    order.ID,
				FromStatus: models.OrderStatusPendingPayment,
				ToStatus:   models.OrderStatusPaymentFailed,
				Note:       "Payment failed via OCTO",
				Metadata:   marshalAudit(map[string]any{"payment_transaction_id": locked.ID.String()}),
			})
		}
	})
	if err != nil {
		metrics.WebhooksReceived.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.WebhooksReceived.WithLabelValues(result.Outcome).Inc()

	if result.OrderConfirmed {
		metrics.PaymentsConfirmed.Inc()
		s.dispatchConfirmation(confirmedOrder, confirmedTxn)
	} else if result.Outcome == "failed" {
		metrics.PaymentsFailed.Inc()
	}

	return result, nil
}

// dispatchConfirmation notifies downstream consumers about a confirmed order.
// Failures are logged and never propagated; the webhook has already been
// acknowledged.
func (s *PaymentService) dispatchConfirmation(order *models.Order, txn *models.PaymentTransaction) {
	event := OrderConfirmedEvent{
		OrderID:       order.PublicID.String(),
		Number:        order.Number,
		Amount:        order.TotalAmount,
		Currency:      order.Currency,
		TransactionID: txn.ShopTransactionID,
	}

	go func() {
		if s.telegram != nil {
			if err := s.telegram.NotifyPaymentSuccess(PaymentNotification{
				OrderNumber:   order.Number,
				TransactionID: txn.ShopTransactionID,
				Amount:        order.TotalAmount,
				Currency:      order.Currency,
			}); err != nil {
				log.Printf("[Payment] telegram confirmation notification failed for order %s: %v", order.Number, err)
			}
		}

		if s.events != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.events.PublishOrderConfirmed(ctx, event); err != nil {
				log.Printf("[Payment] order confirmed event publish failed for order %s: %v", order.Number, err)
			}
		}
	}()
}

// redenominate stores the webhook-reported amount in the order's currency.
// The gateway settles in UZS; a USD order's amount converts back at the
// current rate.
func (s *PaymentService) redenominate(ctx context.Context, txn *models.PaymentTransaction, order *models.Order, payload map[string]any) error {
	reported, ok := payloadDecimal(payload, "total_sum")
	if !ok {
		return nil
	}

	currency := strings.ToUpper(firstPayloadString(payload, "currency"))
	if currency == "UZS" && order.Currency == "USD" {
		rate, err := s.rates.USDRate(ctx)
		if err != nil {
			return err
		}
		txn.Amount = ConvertFromUZS(reported, rate)
		txn.Currency = order.Currency
		return nil
	}

	txn.Amount = reported
	if currency != "" {
		txn.Currency = currency
	}
	return nil
}

// settlementAmounts converts the order total and basket lines into the
// gateway's settlement currency. UZS orders pass through unchanged; USD
// orders convert at the current rate; anything else falls back to UZS with a
// warning — a preserved gateway limitation, not a policy to extend.
func (s *PaymentService) settlementAmounts(ctx context.Context, order *models.Order) (decimal.Decimal, []octo.BasketItem, error) {
	var convert func(decimal.Decimal) decimal.Decimal

	switch order.Currency {
	case "UZS":
		convert = func(v decimal.Decimal) decimal.Decimal { return v }
	case "USD":
		rate, err := s.rates.USDRate(ctx)
		if err != nil {
			return decimal.Zero, nil, err
		}
		convert = func(v decimal.Decimal) decimal.Decimal { return ConvertToUZS(v, rate) }
	default:
		log.Printf("[Payment] order %s has unsupported currency %q, settling amounts as UZS without conversion", order.Number, order.Currency)
		convert = func(v decimal.Decimal) decimal.Decimal { return v }
	}

	basket := make([]octo.BasketItem, 0, len(order.Items))
	for _, item := range order.Items {
		basket = append(basket, octo.BasketItem{
			PositionDesc: item.ProductName,
			Count:        item.Quantity,
			Price:        convert(item.UnitPrice),
			SPIC:         defaultSPIC,
			PackageCode:  defaultPackageCode,
			NDS:          defaultNDS,
		})
	}

	return convert(order.TotalAmount), basket, nil
}

// paymentMethodsFor restricts local instruments to Uzbekistan shipping
// addresses; everyone else, and orders without a shipping address, get
// bank_card only.
func paymentMethodsFor(addr *models.OrderAddress) []string {
	if addr != nil && IsUzbekistan(addr.Country) {
		return []string{"bank_card", "uzcard", "humo"}
	}
	return []string{"bank_card"}
}

func (s *PaymentService) ownedTransaction(ctx context.Context, orderPublicID, userID uuid.UUID, gatewayTransactionID string) (*models.PaymentTransaction, error) {
	order, err := s.store.OrderByPublicID(ctx, orderPublicID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderNotFound()
	}

	txn, err := s.store.TransactionByGatewayID(ctx, order.ID, gatewayTransactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, transactionNotFound()
	}
	return txn, nil
}

func (s *PaymentService) newTransaction(order *models.Order, shopTransactionID string, requestPayload []byte) *models.PaymentTransaction {
	return &models.PaymentTransaction{
		OrderID:           order.ID,
		ShopTransactionID: shopTransactionID,
		Amount:            order.TotalAmount,
		Currency:          order.Currency,
		RequestPayload:    requestPayload,
	}
}

func (s *PaymentService) saveOrLog(ctx context.Context, txn *models.PaymentTransaction) {
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		log.Printf("[Payment] failed to persist transaction %s: %v", txn.ShopTransactionID, err)
	}
}

type webhookOutcome string

const (
	webhookOutcomeSuccess webhookOutcome = "success"
	webhookOutcomeFailed  webhookOutcome = "failed"
	webhookOutcomeUnknown webhookOutcome = "unknown"
)

// classifyWebhookOutcome maps a webhook payload to an outcome. The status
// field wins over the error flag; the gateway has been seen sending
// contradictory combinations. Unrecognized payloads classify as unknown and
// cause no state change.
func classifyWebhookOutcome(payload map[string]any) webhookOutcome {
	switch strings.ToLower(firstPayloadString(payload, "status")) {
	case "success", "succeeded":
		return webhookOutcomeSuccess
	case "failed", "cancelled":
		return webhookOutcomeFailed
	}

	if v, ok := payload["error"]; ok {
		switch e := v.(type) {
		case float64:
			if e == 0 {
				return webhookOutcomeSuccess
			}
			return webhookOutcomeFailed
		case string:
			if e == "0" {
				return webhookOutcomeSuccess
			}
			if e != "" {
				return webhookOutcomeFailed
			}
		}
	}

	return webhookOutcomeUnknown
}

func validLanguage(language string) string {
	switch language {
	case "uz", "ru", "en":
		return language
	}
	return "uz"
}

func otpFormURL(transactionID, language string) string {
	return "https://pay2.octo.uz/otp-form/" + transactionID + "?language=" + validLanguage(language)
}

func firstPayloadString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}

func payloadDecimal(payload map[string]any, key string) (decimal.Decimal, bool) {
	switch v := payload[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		if parsed, err := decimal.NewFromString(v); err == nil {
			return parsed, true
		}
	}
	return decimal.Zero, false
}

func marshalAudit(payload map[string]any) []byte {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return encoded
}

func mergeAudit(existing []byte, extra map[string]any) []byte {
	merged := make(map[string]any)
	if len(existing) > 0 {
		_ = json.Unmarshal(existing, &merged)
	}
	for k, v := range extra {
		merged[k] = v
	}
	return marshalAudit(merged)
}

func cardTail(number string) string {
	if len(number) < 4 {
		return ""
	}
	return number[len(number)-4:]
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
