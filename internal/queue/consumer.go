package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

const consumerGroupID = "shopcore-payment-processor"

// EventProcessor consumes relayed gateway events. Implementations must be
// idempotent: the group delivers at least once.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event model.PaymentEvent) error
}

// PaymentEventConsumer feeds the payment processor from the payment.events
// topic. Processing errors leave the message unmarked so it is redelivered;
// malformed payloads are logged and skipped.
type PaymentEventConsumer struct {
	group     sarama.ConsumerGroup
	processor EventProcessor
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPaymentEventConsumer joins the consumer group.
func NewPaymentEventConsumer(brokers []string, processor EventProcessor, logger *slog.Logger) (*PaymentEventConsumer, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, consumerGroupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect kafka consumer group: %w", err)
	}
	return &PaymentEventConsumer{group: group, processor: processor, logger: logger}, nil
}

// Start launches the consume loop.
func (c *PaymentEventConsumer) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		handler := &eventHandler{processor: c.processor, logger: c.logger}
		for {
			if err := c.group.Consume(runCtx, []string{TopicPaymentEvents}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) || runCtx.Err() != nil {
					return
				}
				c.logger.Error("consumer group session failed", slog.String("error", err.Error()))
			}
			if runCtx.Err() != nil {
				return
			}
		}
	}()
}

// Stop drains the group and closes it.
func (c *PaymentEventConsumer) Stop() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
	return c.group.Close()
}

type eventHandler struct {
	processor EventProcessor
	logger    *slog.Logger
}

func (h *eventHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *eventHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *eventHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var event model.PaymentEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			h.logger.Error("malformed payment event skipped",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
			session.MarkMessage(msg, "")
			continue
		}

		if err := h.processor.ProcessEvent(session.Context(), event); err != nil {
			h.logger.Error("payment event processing failed, will redeliver",
				slog.String("type", event.Type),
				slog.String("gateway_order_id", event.GatewayOrderID),
				slog.String("error", err.Error()),
			)
			return err
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
