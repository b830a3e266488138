package octo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIURL:  server.URL,
		ShopID:  "shop-1",
		Secret:  "secret-1",
		Timeout: 5 * time.Second,
	})
}

func respondJSON(t *testing.T, w http.ResponseWriter, status int, body map[string]any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestPreparePaymentClassifiesPayURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prepare_payment", r.URL.Path)
		respondJSON(t, w, http.StatusOK, map[string]any{
			"error": 0,
			"data": map[string]any{
				"id":           "txn-123",
				"octo_pay_url": "https://pay2.octo.uz/pay/txn-123",
			},
			"octo_pay_url": "https://pay2.octo.uz/pay/txn-123",
		})
	})

	res, err := client.PreparePayment(context.Background(), PrepareRequest{
		ShopTransactionID: "ORD-1",
		Currency:          "UZS",
	})
	require.NoError(t, err)
	assert.Equal(t, KindPrepared, res.Kind)
	assert.Equal(t, "https://pay2.octo.uz/pay/txn-123", res.PayURL)
	assert.Equal(t, "txn-123", res.TransactionID)
}

func TestPreparePaymentPayURLWinsOverErrorFlag(t *testing.T) {
	// The gateway sometimes returns error:1 together with a usable pay URL.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusOK, map[string]any{
			"error":        1,
			"errMessage":   "spurious",
			"octo_pay_url": "https://pay2.octo.uz/form-url/txn-9?lang=uz&lang=ru",
		})
	})

	res, err := client.PreparePayment(context.Background(), PrepareRequest{
		ShopTransactionID: "ORD-2",
		Currency:          "UZS",
	})
	require.NoError(t, err)
	assert.Equal(t, KindPrepared, res.Kind)
	assert.Equal(t, "https://pay2.octo.uz/pay/txn-9?lang=uz", res.PayURL)
}

func TestPreparePaymentRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusOK, map[string]any{
			"error":      32,
			"errMessage": "Invalid shop credentials",
		})
	})

	res, err := client.PreparePayment(context.Background(), PrepareRequest{
		ShopTransactionID: "ORD-3",
		Currency:          "UZS",
	})
	require.NoError(t, err)
	assert.Equal(t, KindRejected, res.Kind)
	assert.Equal(t, "32", res.ErrorCode)
	assert.Equal(t, "Invalid shop credentials", res.ErrorMessage)
	assert.False(t, res.Duplicate)
}

func TestPreparePaymentDuplicateDetection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusOK, map[string]any{
			"error":      14,
			"errMessage": "shop_transaction_id already used",
		})
	})

	res, err := client.PreparePayment(context.Background(), PrepareRequest{
		ShopTransactionID: "ORD-4",
		Currency:          "UZS",
	})
	require.NoError(t, err)
	assert.Equal(t, KindRejected, res.Kind)
	assert.True(t, res.Duplicate)
}

func TestPreparePaymentStructuredErrorOn4xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusBadRequest, map[string]any{
			"error":      400,
			"errMessage": "bad request",
		})
	})

	res, err := client.PreparePayment(context.Background(), PrepareRequest{
		ShopTransactionID: "ORD-5",
		Currency:          "UZS",
	})
	require.NoError(t, err)
	assert.Equal(t, KindRejected, res.Kind)
	assert.Equal(t, "400", res.ErrorCode)
}

func TestPreparePaymentNotConfigured(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.PreparePayment(context.Background(), PrepareRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPayClassifiesOTPRequired(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pay", r.URL.Path)
		respondJSON(t, w, http.StatusOK, map[string]any{
			"error": 0,
			"data": map[string]any{
				"status":         "otp_required",
				"transaction_id": "txn-7",
				"otp_url":        "https://pay2.octo.uz/otp-form/txn-7?language=uz",
			},
		})
	})

	res, err := client.Pay(context.Background(), "txn-7", CardData{Number: "4111111111111111", Expire: "12/30"})
	require.NoError(t, err)
	assert.Equal(t, KindOTPRequired, res.Kind)
	assert.Equal(t, "https://pay2.octo.uz/otp-form/txn-7?language=uz", res.VerificationURL)
}

func TestPayClassifiesProcessing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusOK, map[string]any{
			"error": 0,
			"data": map[string]any{
				"status":         "processing",
				"transaction_id": "txn-8",
			},
		})
	})

	res, err := client.Pay(context.Background(), "txn-8", CardData{Number: "8600000000000000", Expire: "12/30"})
	require.NoError(t, err)
	assert.Equal(t, KindProcessing, res.Kind)
	assert.Equal(t, "txn-8", res.TransactionID)
}

func TestVerificationInfoFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verificationInfo", r.URL.Path)
		respondJSON(t, w, http.StatusOK, map[string]any{
			"error": 0,
			"data": map[string]any{
				"id":               "pay-55",
				"verification_url": "https://pay2.octo.uz/otp-form/txn-55",
				"secondsLeft":      180,
			},
		})
	})

	res, err := client.VerificationInfo(context.Background(), "txn-55")
	require.NoError(t, err)
	assert.Equal(t, KindVerification, res.Kind)
	assert.Equal(t, "pay-55", res.PaymentID)
	assert.Equal(t, 180, res.SecondsLeft)
}

func TestCheckSMSKeyRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusOK, map[string]any{
			"error":      1,
			"errMessage": "Invalid SMS code",
		})
	})

	res, err := client.CheckSMSKey(context.Background(), "txn-1", "000000")
	require.NoError(t, err)
	assert.Equal(t, KindRejected, res.Kind)
	assert.Equal(t, "Invalid SMS code", res.ErrorMessage)
}

func TestNormalizePayURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "form url path collapses to pay",
			in:   "https://pay2.octo.uz/form-url/abc",
			out:  "https://pay2.octo.uz/pay/abc",
		},
		{
			name: "duplicate query params keep first",
			in:   "https://pay2.octo.uz/pay/abc?lang=uz&lang=ru&theme=dark",
			out:  "https://pay2.octo.uz/pay/abc?lang=uz&theme=dark",
		},
		{
			name: "clean url unchanged",
			in:   "https://pay2.octo.uz/pay/abc?lang=uz",
			out:  "https://pay2.octo.uz/pay/abc?lang=uz",
		},
		{
			name: "unparseable url passes through",
			in:   "://not-a-url",
			out:  "://not-a-url",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.out, NormalizePayURL(tc.in))
		})
	}
}

func TestTestModeSimulations(t *testing.T) {
	client := NewClient(Config{ShopID: "shop", Secret: "secret", TestMode: true})

	prepare, err := client.PreparePayment(context.Background(), PrepareRequest{
		ShopTransactionID: "ORD-SIM",
		Currency:          "UZS",
	})
	require.NoError(t, err)
	// Sandbox prepare answers with error:1 plus a pay URL; the URL wins.
	assert.Equal(t, KindPrepared, prepare.Kind)
	assert.NotEmpty(t, prepare.PayURL)
	assert.NotEmpty(t, prepare.TransactionID)

	otp, err := client.Pay(context.Background(), prepare.TransactionID, CardData{Number: "4111111111111111"})
	require.NoError(t, err)
	assert.Equal(t, KindOTPRequired, otp.Kind)

	sms, err := client.Pay(context.Background(), prepare.TransactionID, CardData{Number: "8600000000000000"})
	require.NoError(t, err)
	assert.Equal(t, KindProcessing, sms.Kind)

	info, err := client.VerificationInfo(context.Background(), prepare.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, KindVerification, info.Kind)
	assert.Equal(t, 300, info.SecondsLeft)

	ok, err := client.CheckSMSKey(context.Background(), prepare.TransactionID, "123456")
	require.NoError(t, err)
	assert.Equal(t, KindAccepted, ok.Kind)

	bad, err := client.CheckSMSKey(context.Background(), prepare.TransactionID, "999999")
	require.NoError(t, err)
	assert.Equal(t, KindRejected, bad.Kind)
}
