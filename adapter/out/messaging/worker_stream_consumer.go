package messaging

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"tracker_worker/core/port/out"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// EventReader reads recent entries back from the alert event stream.
type EventReader struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

// NewEventReader creates a new EventReader.
func NewEventReader(client *redis.Client, log zerolog.Logger) *EventReader {
	return &EventReader{client: client, stream: StreamAlertEvents, log: log}
}

// Recent returns up to limit events, newest first. Entries that cannot be
// decoded are skipped.
func (r *EventReader) Recent(ctx context.Context, limit int64) ([]out.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	msgs, err := r.client.XRevRangeN(ctx, r.stream, "+", "-", limit).Result()
	if err != nil {
		if err == redis.Nil {
			return []out.AlertEvent{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", r.stream, err)
	}

	events := make([]out.AlertEvent, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["data"].(string)
		if !ok {
			continue
		}
		var ev out.AlertEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			r.log.Debug().Err(err).Str("id", msg.ID).Msg("skipping malformed alert event")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
