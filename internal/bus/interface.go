package bus

import (
	"context"
)

// Publisher publishes a payload to a topic, keyed for per-key ordering
// where the broker supports it (keys here are always room ids).
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	Close() error
}

// Handler processes one consumed record. Returning an error only logs;
// the consumer never stops on a bad record.
type Handler func(ctx context.Context, key, value []byte) error
