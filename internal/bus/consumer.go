package bus

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/pageturn/bookclub-chat/pkg/log"
)

// Consumer is a long-lived poll loop over one topic, forwarding every
// record to a Handler. One bad record never stops the loop.
type Consumer struct {
	consumer *kafka.Consumer
	topic    string
	groupID  string
	handler  Handler
}

// NewConsumer creates a Kafka consumer for the given topic.
func NewConsumer(cfg Config, topic string, handler Handler) (*Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       cfg.Brokers,
		"group.id":                cfg.GroupID,
		"auto.offset.reset":       "latest",
		"enable.auto.commit":      true,
		"auto.commit.interval.ms": 5000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &Consumer{
		consumer: c,
		topic:    topic,
		groupID:  cfg.GroupID,
		handler:  handler,
	}, nil
}

// Run consumes until ctx is cancelled or a fatal broker error occurs.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.consumer.Subscribe(c.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.topic, err)
	}

	l := log.L()
	l.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("kafka consumer started")

	for {
		select {
		case <-ctx.Done():
			l.Info().Str("topic", c.topic).Msg("kafka consumer stopping")
			return nil
		default:
		}

		ev := c.consumer.Poll(500)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			if err := c.handler(ctx, e.Key, e.Value); err != nil {
				l.Error().Err(err).
					Int32("partition", int32(e.TopicPartition.Partition)).
					Str("offset", e.TopicPartition.Offset.String()).
					Msg("handler error")
			}
		case kafka.Error:
			l.Error().Err(e).Bool("fatal", e.IsFatal()).Msg("kafka error")
			if e.IsFatal() {
				return fmt.Errorf("fatal kafka error: %w", e)
			}
		case kafka.OffsetsCommitted:
			// Normal auto-commit acknowledgement
		default:
			// Ignore other events (rebalance, etc.)
		}
	}
}

func (c *Consumer) Close() error {
	return c.consumer.Close()
}
