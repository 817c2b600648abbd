// Package messaging provides Redis stream adapters.
package messaging

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"tracker_worker/core/port/out"

	"github.com/redis/go-redis/v9"
)

// StreamAlertEvents holds one entry per dispatch attempt.
const StreamAlertEvents = "alerts:events"

// DefaultStreamMaxLen caps the event stream. Trimming is approximate.
const DefaultStreamMaxLen = 10000

// RedisProducer implements out.AlertEventPublisher using Redis Streams.
type RedisProducer struct {
	client *redis.Client
	maxLen int64
}

// NewRedisProducer creates a new RedisProducer. maxLen <= 0 uses
// DefaultStreamMaxLen.
func NewRedisProducer(client *redis.Client, maxLen int64) *RedisProducer {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &RedisProducer{client: client, maxLen: maxLen}
}

// PublishAlert appends a dispatch outcome to the event stream.
func (p *RedisProducer) PublishAlert(ctx context.Context, event *out.AlertEvent) error {
	return p.publish(ctx, StreamAlertEvents, event)
}

// publish publishes a payload to a stream using go-redis.
func (p *RedisProducer) publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}

	return nil
}

// Ensure RedisProducer implements out.AlertEventPublisher
var _ out.AlertEventPublisher = (*RedisProducer)(nil)
