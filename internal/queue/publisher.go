package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

const (
	// TopicOrderStatus carries order status-change notifications for
	// downstream consumers (storefront, mailers). At-least-once delivery;
	// consumers must be idempotent by design.
	TopicOrderStatus = "order.status"

	// TopicPaymentEvents relays raw gateway webhook events into the
	// idempotent payment processor.
	TopicPaymentEvents = "payment.events"
)

// StatusNotification is the published order status-change message.
type StatusNotification struct {
	OrderID string    `json:"orderId"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

// Publisher is the queue surface used by the core: fire-and-forget status
// fan-out and webhook relay.
type Publisher interface {
	EnqueueStatusNotification(ctx context.Context, orderID, status string) error
	PublishPaymentEvent(ctx context.Context, event model.PaymentEvent) error
}

// KafkaPublisher implements Publisher over a sarama sync producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	logger   *slog.Logger
}

// NewKafkaPublisher connects the producer with full-ack durability.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}
	return &KafkaPublisher{producer: producer, logger: logger}, nil
}

// Close shuts the producer down.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// EnqueueStatusNotification publishes an order status change.
func (p *KafkaPublisher) EnqueueStatusNotification(ctx context.Context, orderID, status string) error {
	return p.publish(TopicOrderStatus, orderID, StatusNotification{
		OrderID: orderID,
		Status:  status,
		At:      time.Now().UTC(),
	})
}

// PublishPaymentEvent relays a gateway webhook event, keyed by gateway order
// id so retries of the same payment land on one partition in order.
func (p *KafkaPublisher) PublishPaymentEvent(ctx context.Context, event model.PaymentEvent) error {
	return p.publish(TopicPaymentEvents, event.GatewayOrderID, event)
}

func (p *KafkaPublisher) publish(topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", topic, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.logger.Info("message published",
		slog.String("topic", topic),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}
