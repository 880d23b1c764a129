// Package events publishes cart domain events to Kafka.
package events

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CartSaved is emitted after a shopper's remote cart document is stored.
const CartSaved = "cart.saved"

// Publisher sends one event. key orders events for the same entity.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

// Envelope is the message value written for every event.
type Envelope struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single topic.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
	now    func() time.Time
}

// NewKafkaPublisher returns a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Gzip,
		MaxAttempts:            3,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
	}
	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, logger: logger, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	value, err := json.Marshal(Envelope{
		Type:       eventType,
		Key:        key,
		OccurredAt: p.now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("publish event failed", zap.String("type", eventType), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	p.logger.Debug("event published", zap.String("type", eventType), zap.String("key", key))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
