package broker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStream(t *testing.T) (*Stream, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStream(client, "vendor_orders", "order_processor_group"), mr
}

func TestEnsureGroupIdempotent(t *testing.T) {
	stream, _ := newTestStream(t)
	ctx := context.Background()

	require.NoError(t, stream.EnsureGroup(ctx))

	// second call hits BUSYGROUP and must still succeed
	require.NoError(t, stream.EnsureGroup(ctx))
}

func TestPublishAndRead(t *testing.T) {
	stream, _ := newTestStream(t)
	ctx := context.Background()

	require.NoError(t, stream.EnsureGroup(ctx))

	id, err := stream.Publish(ctx, []byte(`{"vendor_id":"V001"}`))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	messages, err := stream.Read(ctx, "consumer_1", ReadNew, 10, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, id, messages[0].ID)

	event, ok := messages[0].Event()
	require.True(t, ok)
	require.JSONEq(t, `{"vendor_id":"V001"}`, event)
}

func TestAckClearsPending(t *testing.T) {
	stream, _ := newTestStream(t)
	ctx := context.Background()

	require.NoError(t, stream.EnsureGroup(ctx))

	id, err := stream.Publish(ctx, []byte(`{"vendor_id":"V001"}`))
	require.NoError(t, err)

	messages, err := stream.Read(ctx, "consumer_1", ReadNew, 10, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	count, err := stream.PendingCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, stream.Ack(ctx, id))

	count, err = stream.PendingCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestReadPendingRedeliversUnacked(t *testing.T) {
	stream, _ := newTestStream(t)
	ctx := context.Background()

	require.NoError(t, stream.EnsureGroup(ctx))

	id, err := stream.Publish(ctx, []byte(`{"vendor_id":"V001"}`))
	require.NoError(t, err)

	// first delivery, never acked
	messages, err := stream.Read(ctx, "consumer_1", ReadNew, 10, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	// re-reading the pending list delivers the same message again
	messages, err = stream.Read(ctx, "consumer_1", ReadPending, 10, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, id, messages[0].ID)
}

func TestEventFieldMissing(t *testing.T) {
	msg := Message{ID: "1-0", Values: map[string]interface{}{"other": "x"}}

	_, ok := msg.Event()
	require.False(t, ok)
}
