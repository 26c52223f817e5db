package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"rentora/internal/infra/obs"
)

const requestIDHeader = "x-request-id"

// PayloadHandler processes one message value.
type PayloadHandler interface {
	HandlePayload(ctx context.Context, payload []byte) error
}

// ConsumerOptions tunes delivery. Drop reports errors that will never succeed
// on redelivery; such messages are marked and logged instead of retried.
type ConsumerOptions struct {
	Drop   func(error) bool
	Logger *slog.Logger
}

type Consumer struct {
	group   sarama.ConsumerGroup
	handler consumerGroupHandler
}

func ConsumerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	return cfg
}

func NewConsumer(brokers []string, groupID string, handler PayloadHandler, opts ConsumerOptions) (*Consumer, error) {
	g, err := sarama.NewConsumerGroup(brokers, groupID, ConsumerConfig())
	if err != nil {
		return nil, err
	}
	return &Consumer{group: g, handler: newGroupHandler(handler, opts)}, nil
}

// Run consumes topics until ctx is done, rejoining the group after each rebalance.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	for {
		err := c.group.Consume(ctx, topics, c.handler)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	handler PayloadHandler
	drop    func(error) bool
	logger  *slog.Logger
}

func newGroupHandler(handler PayloadHandler, opts ConsumerOptions) consumerGroupHandler {
	h := consumerGroupHandler{handler: handler, drop: opts.Drop, logger: opts.Logger}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.drop == nil {
		h.drop = func(error) bool { return false }
	}
	return h
}

func (h consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim leaves failed messages unmarked; the inbox absorbs the redelivery
// of anything that did succeed.
func (h consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		ctx := messageContext(sess.Context(), message)
		err := h.handler.HandlePayload(ctx, message.Value)
		switch {
		case err == nil:
			sess.MarkMessage(message, "")
		case h.drop(err):
			h.logger.ErrorContext(ctx, "kafka message dropped", "topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err)
			sess.MarkMessage(message, "")
		default:
			h.logger.WarnContext(ctx, "kafka message not handled", "topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err)
		}
	}
	return nil
}

func messageContext(ctx context.Context, message *sarama.ConsumerMessage) context.Context {
	for _, h := range message.Headers {
		if h != nil && strings.EqualFold(string(h.Key), requestIDHeader) && len(h.Value) > 0 {
			return obs.WithRequestID(ctx, string(h.Value))
		}
	}
	return ctx
}
