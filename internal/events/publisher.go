package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/acham/internal/services"
)

// Publisher emits order lifecycle events to Kafka. A Publisher built with no
// brokers is disabled and drops events silently; notification delivery is
// fire-and-forget by contract.
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher builds a Kafka publisher, or a disabled one when brokers is empty.
func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 {
		return &Publisher{}
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
		topic: topic,
	}
}

type orderConfirmedMessage struct {
	Event         string  `json:"event"`
	OrderID       string  `json:"order_id"`
	Number        string  `json:"number"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	TransactionID string  `json:"transaction_id"`
	OccurredAt    string  `json:"occurred_at"`
}

// PublishOrderConfirmed emits an order-confirmed event keyed by order id.
func (p *Publisher) PublishOrderConfirmed(ctx context.Context, event services.OrderConfirmedEvent) error {
	if p.writer == nil {
		return nil
	}

	value, err := json.Marshal(orderConfirmedMessage{
		Event:         "order_confirmed",
		OrderID:       event.OrderID,
		Number:        event.Number,
		Amount:        event.Amount.InexactFloat64(),
		Currency:      event.Currency,
		TransactionID: event.TransactionID,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
		Time:  time.Now(),
		Topic: p.topic,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
