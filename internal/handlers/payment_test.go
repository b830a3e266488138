package handlers

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/acham/internal/services"
)

func TestPaymentErrorResponseMapping(t *testing.T) {
	cases := []struct {
		name   string
		kind   services.ErrorKind
		status int
	}{
		{"order not found", services.ErrKindOrderNotFound, fiber.StatusNotFound},
		{"transaction not found", services.ErrKindTransactionNotFound, fiber.StatusNotFound},
		{"invalid order state", services.ErrKindInvalidOrderState, fiber.StatusConflict},
		{"gateway rejected", services.ErrKindGatewayRejected, fiber.StatusUnprocessableEntity},
		{"gateway unavailable", services.ErrKindGatewayUnavailable, fiber.StatusBadGateway},
		{"configuration", services.ErrKindConfiguration, fiber.StatusServiceUnavailable},
		{"missing identifier", services.ErrKindMissingIdentifier, fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := paymentErrorResponse(&services.PaymentError{Kind: tc.kind, Message: "boom"})
			var fiberErr *fiber.Error
			require.ErrorAs(t, err, &fiberErr)
			assert.Equal(t, tc.status, fiberErr.Code)
		})
	}
}

func TestPaymentErrorResponsePassesThroughUnknownErrors(t *testing.T) {
	cause := errors.New("db down")
	assert.Equal(t, cause, paymentErrorResponse(cause))
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	handler := NewPaymentHandler(nil, nil)

	app := fiber.New()
	app.Post("/api/payments/notify", handler.Webhook)

	req := httptest.NewRequest("POST", "/api/payments/notify", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
