// Package events publishes store events to Kafka, fire-and-forget. The
// producer is optional: a nil *Producer is valid and publishes nothing.
package events

import (
	"context"
	"encoding/json"
	"time"

	"candyshop/internal/core"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const topic = "store-events"

type envelope struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Producer writes store events to Kafka. Publish failures are logged and
// dropped — events follow the same no-rollback discipline as persistence.
type Producer struct {
	writer *kafka.Writer
	log    *zap.Logger
}

// NewProducer builds a producer for the given comma-separated broker list.
func NewProducer(brokers string, log *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer, log: log}
}

// SaleRecorded publishes a sale.recorded event.
func (p *Producer) SaleRecorded(s core.Sale) {
	p.publish("sale.recorded", s)
}

// ProductUpdated publishes a product.updated event.
func (p *Producer) ProductUpdated(prod core.Product) {
	p.publish("product.updated", prod)
}

func (p *Producer) publish(eventType string, payload any) {
	if p == nil {
		return
	}

	ev := envelope{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now(),
		Payload:    payload,
	}
	value, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("failed to marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.EventID), Value: value}); err != nil {
		p.log.Error("failed to publish event",
			zap.String("type", eventType),
			zap.String("event_id", ev.EventID),
			zap.Error(err))
	}
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
