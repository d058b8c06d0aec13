package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDedupe(t *testing.T, ttl time.Duration) (*EventDedupe, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewEventDedupe(NewRedisCacheFromClient(client), ttl), mr
}

func TestMarkProcessedFirstDelivery(t *testing.T) {
	dedupe, _ := newTestDedupe(t, time.Hour)
	ctx := context.Background()

	first, err := dedupe.MarkProcessed(ctx, "0xabc-0")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := dedupe.MarkProcessed(ctx, "0xabc-0")
	require.NoError(t, err)
	assert.False(t, second, "re-delivery of the same event id is not first")

	other, err := dedupe.MarkProcessed(ctx, "0xabc-1")
	require.NoError(t, err)
	assert.True(t, other, "a different log index is a different event")
}

func TestIsProcessed(t *testing.T) {
	dedupe, _ := newTestDedupe(t, time.Hour)
	ctx := context.Background()

	seen, err := dedupe.IsProcessed(ctx, "0xdef-3")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = dedupe.MarkProcessed(ctx, "0xdef-3")
	require.NoError(t, err)

	seen, err = dedupe.IsProcessed(ctx, "0xdef-3")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestClearReleasesMark(t *testing.T) {
	dedupe, _ := newTestDedupe(t, time.Hour)
	ctx := context.Background()

	first, err := dedupe.MarkProcessed(ctx, "0x123-0")
	require.NoError(t, err)
	require.True(t, first)

	require.NoError(t, dedupe.Clear(ctx, "0x123-0"))

	retry, err := dedupe.MarkProcessed(ctx, "0x123-0")
	require.NoError(t, err)
	assert.True(t, retry, "a cleared mark allows the retry through")
}

func TestMarkExpiresAfterTTL(t *testing.T) {
	dedupe, mr := newTestDedupe(t, time.Minute)
	ctx := context.Background()

	first, err := dedupe.MarkProcessed(ctx, "0x456-0")
	require.NoError(t, err)
	require.True(t, first)

	mr.FastForward(2 * time.Minute)

	again, err := dedupe.MarkProcessed(ctx, "0x456-0")
	require.NoError(t, err)
	assert.True(t, again, "expired marks no longer suppress delivery")
}
