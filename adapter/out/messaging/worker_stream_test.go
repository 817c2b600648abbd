package messaging

import (
	"context"
	"testing"
	"time"

	"tracker_worker/core/port/out"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestAlertEvents_PublishAndReadNewestFirst(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	producer := NewRedisProducer(client, 0)
	reader := NewEventReader(client, zerolog.Nop())

	ts := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	for i, row := range []string{"row-1", "row-2", "row-3"} {
		require.NoError(t, producer.PublishAlert(ctx, &out.AlertEvent{
			RowID:     row,
			Sheet:     "Sizing",
			Ladder:    "progress",
			To:        "whatsapp:+84900000001",
			Sent:      i != 1,
			Timestamp: ts.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := reader.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "row-3", events[0].RowID)
	assert.True(t, events[0].Sent)
	assert.Equal(t, "row-2", events[1].RowID)
	assert.False(t, events[1].Sent)
	assert.True(t, ts.Add(time.Minute).Equal(events[1].Timestamp))
}

func TestAlertEvents_SkipsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamAlertEvents,
		Values: map[string]interface{}{"data": "{not json"},
	}).Err())
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamAlertEvents,
		Values: map[string]interface{}{"other": "x"},
	}).Err())
	require.NoError(t, NewRedisProducer(client, 10).PublishAlert(ctx, &out.AlertEvent{RowID: "row-1"}))

	events, err := NewEventReader(client, zerolog.Nop()).Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "row-1", events[0].RowID)
}

func TestAlertEvents_EmptyStream(t *testing.T) {
	_, client := newTestClient(t)

	events, err := NewEventReader(client, zerolog.Nop()).Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
