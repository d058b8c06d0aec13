package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lending-indexer/internal/storage"
)

func newTestCache(t *testing.T) (*storage.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return storage.NewRedisCacheFromClient(client), mr
}

func TestPriceCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	prices := NewPriceCache(cache, time.Hour)
	ctx := context.Background()

	_, ok, err := prices.GetPrice(ctx, "0xToken")
	require.NoError(t, err)
	assert.False(t, ok, "unknown token has no price")

	want := decimal.RequireFromString("1853.42")
	require.NoError(t, prices.SetPrice(ctx, "0xToken", want))

	got, ok, err := prices.GetPrice(ctx, "0xtoken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, want.Equal(got), "lookups are case-insensitive on the address")
}

func TestPriceCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	prices := NewPriceCache(cache, time.Minute)
	ctx := context.Background()

	require.NoError(t, prices.SetPrice(ctx, "0xabc", decimal.NewFromInt(2)))
	mr.FastForward(2 * time.Minute)

	_, ok, err := prices.GetPrice(ctx, "0xabc")
	require.NoError(t, err)
	assert.False(t, ok)
}

// countingProvider counts upstream metadata fetches
type countingProvider struct {
	meta  TokenMetadata
	calls int
}

func (p *countingProvider) TokenMetadata(_ context.Context, _ string) (*TokenMetadata, error) {
	p.calls++
	meta := p.meta
	return &meta, nil
}

func TestCachedMetadataProvider(t *testing.T) {
	cache, _ := newTestCache(t)
	source := &countingProvider{meta: TokenMetadata{Name: "Wrapped Ether", Symbol: "WETH", Decimals: 18}}
	provider := NewCachedMetadataProvider(source, cache, time.Hour)
	ctx := context.Background()

	first, err := provider.TokenMetadata(ctx, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	require.NoError(t, err)
	assert.Equal(t, "WETH", first.Symbol)
	assert.Equal(t, 1, source.calls)

	// second lookup is served from the cache, case-insensitively
	second, err := provider.TokenMetadata(ctx, "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
}

func TestCachedMetadataProviderRecoversFromCorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t)
	source := &countingProvider{meta: TokenMetadata{Name: "Maker", Symbol: "MKR", Decimals: 18}}
	provider := NewCachedMetadataProvider(source, cache, time.Hour)
	ctx := context.Background()

	mr.Set("token_meta:0xmkr", "not json")

	meta, err := provider.TokenMetadata(ctx, "0xmkr")
	require.NoError(t, err)
	assert.Equal(t, "MKR", meta.Symbol)
	assert.Equal(t, 1, source.calls, "corrupt cache entries fall through to the source")

	// and the entry is repaired
	again, err := provider.TokenMetadata(ctx, "0xmkr")
	require.NoError(t, err)
	assert.Equal(t, meta, again)
	assert.Equal(t, 1, source.calls)
}
