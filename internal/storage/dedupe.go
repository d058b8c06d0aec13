package storage

import (
	"context"
	"fmt"
	"time"
)

// EventDedupe marks events as processed in Redis so a re-delivered log is
// dropped before it reaches the metrics engine. Keys are the deterministic
// event id (tx hash + log index) and expire after the configured TTL; a
// re-delivery older than the TTL is not expected from the chain.
type EventDedupe struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewEventDedupe creates a new event dedupe set
func NewEventDedupe(cache *RedisCache, ttl time.Duration) *EventDedupe {
	return &EventDedupe{cache: cache, ttl: ttl}
}

// MarkProcessed records the event id and reports whether this call was the
// first to do so. A false return means the event was already processed.
func (d *EventDedupe) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	first, err := d.cache.Client().SetNX(ctx, d.key(eventID), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}
	return first, nil
}

// IsProcessed reports whether the event id has already been recorded
func (d *EventDedupe) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	count, err := d.cache.Client().Exists(ctx, d.key(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return count > 0, nil
}

// Clear removes the mark for an event id. Used when processing fails after
// the mark was taken, so a retry is not dropped as a duplicate.
func (d *EventDedupe) Clear(ctx context.Context, eventID string) error {
	if err := d.cache.Client().Del(ctx, d.key(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to clear event mark: %w", err)
	}
	return nil
}

func (d *EventDedupe) key(eventID string) string {
	return "processed:" + eventID
}
