package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/lending-indexer/internal/storage"
)

// PriceCache keeps the last observed USD price per token in Redis
type PriceCache struct {
	cache *storage.RedisCache
	ttl   time.Duration
}

// NewPriceCache creates a new price cache
func NewPriceCache(cache *storage.RedisCache, ttl time.Duration) *PriceCache {
	return &PriceCache{cache: cache, ttl: ttl}
}

// SetPrice stores the latest USD price for a token
func (c *PriceCache) SetPrice(ctx context.Context, token string, price decimal.Decimal) error {
	if err := c.cache.Set(ctx, c.key(token), price.String(), c.ttl); err != nil {
		return fmt.Errorf("failed to cache price for %s: %w", token, err)
	}
	return nil
}

// GetPrice returns the cached USD price for a token. The second return is
// false when no price is cached.
func (c *PriceCache) GetPrice(ctx context.Context, token string) (decimal.Decimal, bool, error) {
	val, err := c.cache.Get(ctx, c.key(token))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to read cached price for %s: %w", token, err)
	}
	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid cached price for %s: %w", token, err)
	}
	return price, true, nil
}

func (c *PriceCache) key(token string) string {
	return "price:" + strings.ToLower(token)
}

// CachedMetadataProvider caches token metadata lookups in Redis. Metadata is
// immutable for the tokens we index, so the TTL is generous.
type CachedMetadataProvider struct {
	source MetadataProvider
	cache  *storage.RedisCache
	ttl    time.Duration
}

// NewCachedMetadataProvider wraps a metadata provider with a Redis cache
func NewCachedMetadataProvider(source MetadataProvider, cache *storage.RedisCache, ttl time.Duration) *CachedMetadataProvider {
	return &CachedMetadataProvider{source: source, cache: cache, ttl: ttl}
}

// TokenMetadata returns cached metadata, falling back to the source provider
// on a miss and populating the cache
func (p *CachedMetadataProvider) TokenMetadata(ctx context.Context, token string) (*TokenMetadata, error) {
	key := "token_meta:" + strings.ToLower(token)

	if val, err := p.cache.Get(ctx, key); err == nil {
		var meta TokenMetadata
		if err := json.Unmarshal([]byte(val), &meta); err == nil {
			return &meta, nil
		}
		// corrupt entry, refetch below
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read cached metadata for %s: %w", token, err)
	}

	meta, err := p.source.TokenMetadata(ctx, token)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata for %s: %w", token, err)
	}
	if err := p.cache.Set(ctx, key, string(data), p.ttl); err != nil {
		return nil, fmt.Errorf("failed to cache metadata for %s: %w", token, err)
	}

	return meta, nil
}
