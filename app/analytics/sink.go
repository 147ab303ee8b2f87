package analytics

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	eventsKey = "analytics:events"

	// maxQueuedEvents caps the Redis list so a stalled consumer cannot
	// grow it without bound.
	maxQueuedEvents = 100000
)

// RedisSink appends event batches to a capped Redis list consumed by
// the downstream analytics pipeline.
type RedisSink struct {
	client *redis.Client
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) Append(ctx context.Context, payloads [][]byte) error {
	if len(payloads) == 0 {
		return nil
	}

	values := make([]interface{}, len(payloads))
	for i, payload := range payloads {
		values[i] = payload
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, eventsKey, values...)
	pipe.LTrim(ctx, eventsKey, -maxQueuedEvents, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append events: %w", err)
	}

	return nil
}
