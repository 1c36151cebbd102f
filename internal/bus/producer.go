package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/pageturn/bookclub-chat/pkg/log"
)

// Config holds Kafka connection settings shared by producer and consumers.
type Config struct {
	Brokers       string `mapstructure:"brokers"`
	MessagesTopic string `mapstructure:"messages_topic"`
	EventsTopic   string `mapstructure:"events_topic"`
	GroupID       string `mapstructure:"group_id"`
	Partitions    int    `mapstructure:"partitions"`
}

// ConfluentProducer is the process-wide Kafka producer.
type ConfluentProducer struct {
	producer *kafka.Producer
	doneCh   chan struct{}
}

// NewConfluentProducer creates the producer and ensures both chat topics
// exist with the configured partition count.
func NewConfluentProducer(cfg Config) (*ConfluentProducer, error) {
	if err := ensureTopics(cfg); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("failed to ensure kafka topics (may already exist)")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	cp := &ConfluentProducer{
		producer: p,
		doneCh:   make(chan struct{}),
	}

	go cp.deliveryReportHandler()

	return cp, nil
}

func ensureTopics(cfg Config) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	partitions := cfg.Partitions
	if partitions <= 0 {
		partitions = 4
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	specs := []kafka.TopicSpecification{
		{Topic: cfg.MessagesTopic, NumPartitions: partitions, ReplicationFactor: 1},
		{Topic: cfg.EventsTopic, NumPartitions: partitions, ReplicationFactor: 1},
	}

	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError && r.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", r.Topic, r.Error)
		}
	}

	return nil
}

func (cp *ConfluentProducer) deliveryReportHandler() {
	for e := range cp.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				l := log.L()
				l.Error().Err(ev.TopicPartition.Error).Msg("kafka delivery failed")
			}
		}
	}
	close(cp.doneCh)
}

// Publish produces one record keyed for per-room partition ordering.
func (cp *ConfluentProducer) Publish(ctx context.Context, topic, key string, payload []byte) error {
	err := cp.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(key),
		Value: payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func (cp *ConfluentProducer) Close() error {
	cp.producer.Flush(5000)
	cp.producer.Close()
	<-cp.doneCh
	return nil
}
