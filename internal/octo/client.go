package octo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured is returned when shop credentials are missing.
var ErrNotConfigured = errors.New("octo credentials not configured")

// Config holds OCTO gateway credentials and connection settings.
type Config struct {
	APIURL   string
	ShopID   string
	Secret   string
	TestMode bool
	Timeout  time.Duration
}

// Client wraps the OCTO payment gateway HTTP API. Every response is
// classified exactly once into a tagged Result so callers never re-inspect
// raw payloads.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a gateway client with a bounded request timeout.
func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://secure.octo.uz"
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Kind discriminates gateway responses.
type Kind int

const (
	// KindPrepared means the gateway created the payment and returned a pay URL.
	KindPrepared Kind = iota + 1
	// KindOTPRequired means the card scheme requires redirect-based OTP.
	KindOTPRequired
	// KindProcessing means the payment was accepted and is being processed.
	KindProcessing
	// KindVerification carries OTP verification info (URL, countdown).
	KindVerification
	// KindAccepted is a plain success without additional data.
	KindAccepted
	// KindRejected is a structured gateway error.
	KindRejected
)

// Result is the classified gateway response.
type Result struct {
	Kind            Kind
	PayURL          string
	TransactionID   string
	PaymentID       string
	VerificationURL string
	SecondsLeft     int
	// Duplicate is set when the gateway reports the shop_transaction_id as
	// already used by a previous request.
	Duplicate    bool
	ErrorCode    string
	ErrorMessage string
	Raw          json.RawMessage
}

// UserData identifies the paying customer toward the gateway.
type UserData struct {
	UserID string `json:"user_id"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
}

// BasketItem is one fiscalized basket line.
type BasketItem struct {
	PositionDesc string          `json:"position_desc"`
	Count        int             `json:"count"`
	Price        decimal.Decimal `json:"price"`
	SPIC         string          `json:"spic"`
	INN          string          `json:"inn"`
	PackageCode  string          `json:"package_code"`
	NDS          int             `json:"nds"`
}

// CardData holds the card details submitted on confirmation.
type CardData struct {
	Number         string `json:"card_number"`
	Expire         string `json:"expire"`
	CardholderName string `json:"cardholder_name"`
}

// PrepareRequest is the input to PreparePayment.
type PrepareRequest struct {
	ShopTransactionID string
	TotalSum          decimal.Decimal
	Currency          string
	Description       string
	Basket            []BasketItem
	UserData          UserData
	ReturnURL         string
	NotifyURL         string
	Language          string
	PaymentMethods    []string
	TTL               int
}

// PreparePayment registers a payment with the gateway and returns the pay URL.
func (c *Client) PreparePayment(ctx context.Context, req PrepareRequest) (*Result, error) {
	if c.cfg.ShopID == "" || c.cfg.Secret == "" {
		return nil, ErrNotConfigured
	}

	// OCTO accepts only UZS and CLS settlement currencies. The orchestrator
	// converts beforehand; this is a final guard.
	currency := req.Currency
	if currency != "UZS" && currency != "CLS" {
		log.Printf("[OCTO] invalid settlement currency %q, defaulting to UZS", currency)
		currency = "UZS"
	}

	if c.cfg.TestMode {
		return classifyPrepare(simulatePrepare(req.ShopTransactionID))
	}

	methods := req.PaymentMethods
	if len(methods) == 0 {
		methods = []string{"bank_card", "uzcard", "humo"}
	}
	methodObjs := make([]map[string]string, 0, len(methods))
	for _, m := range methods {
		methodObjs = append(methodObjs, map[string]string{"method": m})
	}

	basket := make([]map[string]any, 0, len(req.Basket))
	for _, item := range req.Basket {
		basket = append(basket, map[string]any{
			"position_desc": item.PositionDesc,
			"count":         item.Count,
			"price":         item.Price.InexactFloat64(),
			"spic":          item.SPIC,
			"inn":           item.INN,
			"package_code":  item.PackageCode,
			"nds":           item.NDS,
		})
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = 15
	}

	payload := map[string]any{
		"octo_shop_id":        c.cfg.ShopID,
		"octo_secret":         c.cfg.Secret,
		"shop_transaction_id": req.ShopTransactionID,
		"auto_capture":        true,
		"test":                c.cfg.TestMode,
		"user_data":           req.UserData,
		"total_sum":           req.TotalSum.InexactFloat64(),
		"currency":            currency,
		"description":         req.Description,
		"basket":              basket,
		"payment_methods":     methodObjs,
		"return_url":          req.ReturnURL,
		"notify_url":          req.NotifyURL,
		"language":            req.Language,
		"ttl":                 ttl,
	}

	raw, err := c.send(ctx, "/prepare_payment", payload)
	if err != nil {
		return nil, err
	}
	return classifyPrepare(raw)
}

// Pay submits card data for a prepared transaction.
func (c *Client) Pay(ctx context.Context, transactionID string, card CardData) (*Result, error) {
	if c.cfg.ShopID == "" || c.cfg.Secret == "" {
		return nil, ErrNotConfigured
	}

	if c.cfg.TestMode {
		return classifyPay(simulatePay(transactionID, card))
	}

	payload := map[string]any{
		"octo_shop_id":   c.cfg.ShopID,
		"octo_secret":    c.cfg.Secret,
		"transaction_id": transactionID,
		"card_data":      card,
	}

	raw, err := c.send(ctx, "/pay", payload)
	if err != nil {
		return nil, err
	}
	return classifyPay(raw)
}

// VerificationInfo fetches the OTP verification URL and countdown.
func (c *Client) VerificationInfo(ctx context.Context, transactionID string) (*Result, error) {
	if c.cfg.ShopID == "" || c.cfg.Secret == "" {
		return nil, ErrNotConfigured
	}

	if c.cfg.TestMode {
		return classifyVerification(simulateVerification(transactionID))
	}

	payload := map[string]any{
		"octo_shop_id":   c.cfg.ShopID,
		"octo_secret":    c.cfg.Secret,
		"transaction_id": transactionID,
	}

	raw, err := c.send(ctx, "/verificationInfo", payload)
	if err != nil {
		return nil, err
	}
	return classifyVerification(raw)
}

// CheckSMSKey submits the OTP code received by the cardholder.
func (c *Client) CheckSMSKey(ctx context.Context, transactionID, smsKey string) (*Result, error) {
	if c.cfg.ShopID == "" || c.cfg.Secret == "" {
		return nil, ErrNotConfigured
	}

	if c.cfg.TestMode {
		return classifySimple(simulateCheckSMS(transactionID, smsKey))
	}

	payload := map[string]any{
		"octo_shop_id":   c.cfg.ShopID,
		"octo_secret":    c.cfg.Secret,
		"transaction_id": transactionID,
		"sms_key":        smsKey,
	}

	raw, err := c.send(ctx, "/check_sms_key", payload)
	if err != nil {
		return nil, err
	}
	return classifySimple(raw)
}

// CheckTransaction polls the gateway-side transaction state.
func (c *Client) CheckTransaction(ctx context.Context, transactionID string) (*Result, error) {
	if c.cfg.ShopID == "" || c.cfg.Secret == "" {
		return nil, ErrNotConfigured
	}

	payload := map[string]any{
		"octo_shop_id":   c.cfg.ShopID,
		"octo_secret":    c.cfg.Secret,
		"transaction_id": transactionID,
	}

	raw, err := c.send(ctx, "/check_transaction", payload)
	if err != nil {
		return nil, err
	}
	return classifySimple(raw)
}

func (c *Client) send(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("octo request marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("octo request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[OCTO] POST %s%s", c.cfg.APIURL, path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("octo request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("[OCTO] response status %d from %s", resp.StatusCode, path)

	var raw map[string]any
	if err := json.Unmarshal(respBody, &raw); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("octo %s: status %d, body: %s", path, resp.StatusCode, truncate(string(respBody), 1000))
		}
		return nil, fmt.Errorf("octo %s: invalid JSON response: %s", path, truncate(string(respBody), 1000))
	}

	// A structured error body on a 4xx/5xx is still a gateway answer, not a
	// transport failure; classification handles it.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if _, ok := raw["error"]; !ok {
			raw["error"] = resp.StatusCode
		}
	}

	return raw, nil
}

// classifyPrepare decides the outcome of a prepare_payment call. A payload
// carrying a pay URL counts as prepared even when the error flag is set; the
// gateway's success/error signaling is not self-consistent.
func classifyPrepare(raw map[string]any) (*Result, error) {
	res := newResult(raw)
	data, _ := raw["data"].(map[string]any)

	payURL := stringField(raw, "octo_pay_url")
	if payURL == "" && data != nil {
		payURL = stringField(data, "octo_pay_url")
	}

	if payURL != "" {
		res.Kind = KindPrepared
		res.PayURL = NormalizePayURL(payURL)
		if data != nil {
			res.TransactionID = firstString(data, "id", "octo_payment_UUID", "transaction_id")
		}
		if res.TransactionID == "" {
			res.TransactionID = firstString(raw, "octo_payment_UUID", "transaction_id")
		}
		return res, nil
	}

	res.Kind = KindRejected
	res.ErrorCode, res.ErrorMessage = errorFields(raw)
	res.Duplicate = isDuplicateError(res.ErrorMessage)
	return res, nil
}

func classifyPay(raw map[string]any) (*Result, error) {
	res := newResult(raw)
	if code, msg, rejected := rejection(raw); rejected {
		res.Kind = KindRejected
		res.ErrorCode, res.ErrorMessage = code, msg
		return res, nil
	}

	data, _ := raw["data"].(map[string]any)
	if data != nil {
		res.TransactionID = stringField(data, "transaction_id")
		switch stringField(data, "status") {
		case "otp_required":
			res.Kind = KindOTPRequired
			res.VerificationURL = stringField(data, "otp_url")
			return res, nil
		}
	}

	res.Kind = KindProcessing
	return res, nil
}

func classifyVerification(raw map[string]any) (*Result, error) {
	res := newResult(raw)
	if code, msg, rejected := rejection(raw); rejected {
		res.Kind = KindRejected
		res.ErrorCode, res.ErrorMessage = code, msg
		return res, nil
	}

	res.Kind = KindVerification
	if data, ok := raw["data"].(map[string]any); ok {
		res.PaymentID = stringField(data, "id")
		res.VerificationURL = stringField(data, "verification_url")
		res.SecondsLeft = intField(data, "secondsLeft")
	}
	return res, nil
}

func classifySimple(raw map[string]any) (*Result, error) {
	res := newResult(raw)
	if code, msg, rejected := rejection(raw); rejected {
		res.Kind = KindRejected
		res.ErrorCode, res.ErrorMessage = code, msg
		return res, nil
	}
	res.Kind = KindAccepted
	return res, nil
}

// NormalizePayURL canonicalizes a gateway pay URL: the alternate form-url
// path variant collapses to the /pay/ path and duplicated query parameters
// are dropped, keeping the first occurrence.
func NormalizePayURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	parsed.Path = strings.Replace(parsed.Path, "/form-url/", "/pay/", 1)

	if parsed.RawQuery != "" {
		seen := make(map[string]bool)
		kept := make([]string, 0)
		for _, pair := range strings.Split(parsed.RawQuery, "&") {
			key := pair
			if idx := strings.IndexByte(pair, '='); idx >= 0 {
				key = pair[:idx]
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			kept = append(kept, pair)
		}
		parsed.RawQuery = strings.Join(kept, "&")
	}

	return parsed.String()
}

func newResult(raw map[string]any) *Result {
	encoded, _ := json.Marshal(raw)
	return &Result{Raw: encoded}
}

// rejection reports whether the payload carries a non-zero error flag.
func rejection(raw map[string]any) (code, message string, rejected bool) {
	v, ok := raw["error"]
	if !ok {
		return "", "", false
	}
	switch e := v.(type) {
	case float64:
		if e == 0 {
			return "", "", false
		}
		code = strconv.FormatInt(int64(e), 10)
	case string:
		if e == "" || e == "0" {
			return "", "", false
		}
		code = e
	default:
		return "", "", false
	}
	_, message = splitErrorFields(raw)
	return code, message, true
}

func errorFields(raw map[string]any) (code, message string) {
	code, message, _ = rejection(raw)
	if code == "" {
		code, message = splitErrorFields(raw)
	}
	return code, message
}

func splitErrorFields(raw map[string]any) (code, message string) {
	if v, ok := raw["error"]; ok {
		switch e := v.(type) {
		case float64:
			code = strconv.FormatInt(int64(e), 10)
		case string:
			code = e
		}
	}
	message = firstString(raw, "errMessage", "errorMessage", "apiMessageForDevelopers")
	return code, message
}

func isDuplicateError(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "already") || strings.Contains(lower, "duplicate")
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := stringField(m, key); v != "" {
			return v
		}
	}
	return ""
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return 0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// Test-mode simulations mirror the sandbox behavior of the real gateway:
// prepare returns a pay URL alongside a non-zero error flag, cards starting
// with 4 take the redirect OTP branch, other cards the SMS branch, and the
// OTP code 123456 verifies.

func simulatePrepare(shopTransactionID string) map[string]any {
	transactionID := uuid.NewString()
	payURL := "https://pay2.octo.uz/pay/" + transactionID
	return map[string]any{
		"error": float64(1),
		"data": map[string]any{
			"id":           transactionID,
			"octo_pay_url": payURL,
		},
		"octo_pay_url":            payURL,
		"shop_transaction_id":     shopTransactionID,
		"apiMessageForDevelopers": "Test mode simulation - credentials not configured",
	}
}

func simulatePay(transactionID string, card CardData) map[string]any {
	if strings.HasPrefix(card.Number, "4") {
		return map[string]any{
			"error": float64(0),
			"data": map[string]any{
				"status":         "otp_required",
				"transaction_id": transactionID,
				"otp_url":        "https://pay2.octo.uz/otp-form/" + transactionID + "?language=uz",
				"message":        "Redirect to OCTO OTP form",
			},
		}
	}
	return map[string]any{
		"error": float64(0),
		"data": map[string]any{
			"status":         "processing",
			"transaction_id": transactionID,
			"message":        "Payment initiated, waiting for OTP verification",
		},
	}
}

func simulateVerification(transactionID string) map[string]any {
	return map[string]any{
		"error": float64(0),
		"data": map[string]any{
			"id":               transactionID,
			"verification_url": "",
			"secondsLeft":      float64(300),
			"status":           "verification_required",
		},
	}
}

func simulateCheckSMS(transactionID, smsKey string) map[string]any {
	if smsKey == "123456" {
		return map[string]any{
			"error": float64(0),
			"data": map[string]any{
				"status":         "success",
				"transaction_id": transactionID,
			},
		}
	}
	return map[string]any{
		"error":      float64(1),
		"errMessage": "Invalid SMS code",
	}
}
