// Package pricing provides token metadata lookup and a Redis-backed price
// cache. Authoritative prices arrive through oracle events on the indexed
// chain; the cache keeps the last observed price available to the reporting
// API without a store round trip.
package pricing

import (
	"context"
)

// TokenMetadata describes an ERC-20 token
type TokenMetadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// MetadataProvider resolves token metadata by contract address
type MetadataProvider interface {
	TokenMetadata(ctx context.Context, token string) (*TokenMetadata, error)
}
