package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsInitiated counts prepare attempts by result (prepared, failed).
	PaymentsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acham_payments_initiated_total",
		Help: "Payment initiation attempts by result",
	}, []string{"result"})

	// PaymentsConfirmed counts orders moved to payment_confirmed.
	PaymentsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acham_payments_confirmed_total",
		Help: "Orders confirmed through a successful payment",
	})

	// PaymentsFailed counts orders moved to payment_failed.
	PaymentsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acham_payments_failed_total",
		Help: "Orders that failed payment",
	})

	// WebhooksReceived counts webhook deliveries by outcome
	// (success, failed, ignored, duplicate, error).
	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acham_payment_webhooks_total",
		Help: "Gateway webhook deliveries by outcome",
	}, []string{"outcome"})

	// WebhookDuplicates counts deliveries for transactions already terminal.
	WebhookDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acham_payment_webhook_duplicates_total",
		Help: "Webhook deliveries that were no-ops on terminal transactions",
	})
)
