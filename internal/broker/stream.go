// Package broker wraps the Redis Streams client with the small surface
// the pipeline needs: idempotent group creation, batch reads for one
// consumer identity, per-message acknowledgment and publishing.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventField is the single stream entry field holding the JSON-encoded
// order event.
const EventField = "event"

// ReadNew requests messages never delivered to this group; ReadPending
// re-reads messages delivered to this consumer but not yet acked.
const (
	ReadNew     = ">"
	ReadPending = "0"
)

type Message struct {
	ID     string
	Values map[string]interface{}
}

// Event extracts the raw event payload from a stream entry. The second
// return is false when the field is missing or not a string.
func (m Message) Event() (string, bool) {
	raw, ok := m.Values[EventField]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

type Stream struct {
	client *redis.Client
	stream string
	group  string
}

func NewStream(client *redis.Client, stream, group string) *Stream {
	return &Stream{
		client: client,
		stream: stream,
		group:  group,
	}
}

func (s *Stream) Name() string  { return s.stream }
func (s *Stream) Group() string { return s.group }

// EnsureGroup creates the consumer group at the current tail of the
// stream, creating the stream if needed. An already existing group is
// a no-op; any other failure must abort startup.
func (s *Stream) EnsureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "$").Err()
	if err == nil {
		return nil
	}

	if strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}

	return fmt.Errorf("create group %q on stream %q: %w", s.group, s.stream, err)
}

// Read pulls up to count messages for the given consumer identity,
// blocking up to block when cursor is ReadNew and nothing is pending.
// An empty result is returned as (nil, nil).
func (s *Stream) Read(ctx context.Context, consumer, cursor string, count int64, block time.Duration) ([]Message, error) {
	args := &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: consumer,
		Streams:  []string{s.stream, cursor},
		Count:    count,
		Block:    block,
	}

	streams, err := s.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read group %q: %w", s.group, err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			messages = append(messages, Message{ID: entry.ID, Values: entry.Values})
		}
	}

	return messages, nil
}

// Ack advances the group cursor past the message. Called only after
// durable persistence succeeds or the message is ruled unprocessable.
func (s *Stream) Ack(ctx context.Context, id string) error {
	if err := s.client.XAck(ctx, s.stream, s.group, id).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", id, err)
	}
	return nil
}

// Publish appends the JSON-encoded event to the stream and returns the
// broker-assigned message id.
func (s *Stream) Publish(ctx context.Context, event []byte) (string, error) {
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{EventField: string(event)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd to %q: %w", s.stream, err)
	}

	return id, nil
}

// PendingCount reports how many delivered-but-unacked messages the
// group holds. Used by tests and the health surface.
func (s *Stream) PendingCount(ctx context.Context) (int64, error) {
	pending, err := s.client.XPending(ctx, s.stream, s.group).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending on %q: %w", s.stream, err)
	}
	return pending.Count, nil
}
