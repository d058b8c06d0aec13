// Package adapter connects the indexer to the chain. It polls logs emitted by
// the protocol's core contracts, decodes them into protocol events and hands
// them to the ingestion worker in block order.
package adapter

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	apperrors "github.com/lending-indexer/internal/errors"
	"github.com/lending-indexer/internal/logging"
)

// ChainClient wraps primary and secondary RPC endpoints with failover and a
// shared request rate limit. The secondary is dialed lazily on first failure
// of the primary.
type ChainClient struct {
	endpoints []string
	clients   []*ethclient.Client
	current   int
	mu        sync.RWMutex

	limiter *rate.Limiter
	logger  *logging.Logger
}

// ChainClientConfig holds configuration for creating a chain client
type ChainClientConfig struct {
	// Primary is the primary RPC URL. Required.
	Primary string
	// Secondary is an optional fallback RPC URL
	Secondary string
	// RequestsPerSec caps RPC calls per second across both endpoints
	RequestsPerSec float64
}

// NewChainClient creates a new chain client
func NewChainClient(cfg *ChainClientConfig, logger *logging.Logger) (*ChainClient, error) {
	if cfg == nil || cfg.Primary == "" {
		return nil, fmt.Errorf("primary RPC endpoint is required")
	}

	endpoints := []string{cfg.Primary}
	if cfg.Secondary != "" {
		endpoints = append(endpoints, cfg.Secondary)
	}

	client, err := ethclient.Dial(cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to primary RPC endpoint: %w", err)
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 10
	}

	c := &ChainClient{
		endpoints: endpoints,
		clients:   make([]*ethclient.Client, len(endpoints)),
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    logger,
	}
	c.clients[0] = client

	return c, nil
}

// BlockNumber returns the latest block number
func (c *ChainClient) BlockNumber(ctx context.Context) (uint64, error) {
	var n uint64
	err := c.do(ctx, "BlockNumber", func(client *ethclient.Client) error {
		var err error
		n, err = client.BlockNumber(ctx)
		return err
	})
	return n, err
}

// HeaderByNumber returns the header for the given block number
func (c *ChainClient) HeaderByNumber(ctx context.Context, number uint64) (*ethtypes.Header, error) {
	var header *ethtypes.Header
	err := c.do(ctx, "HeaderByNumber", func(client *ethclient.Client) error {
		var err error
		header, err = client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		return err
	})
	return header, err
}

// FilterLogs returns the logs matching the query
func (c *ChainClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	var logs []ethtypes.Log
	err := c.do(ctx, "FilterLogs", func(client *ethclient.Client) error {
		var err error
		logs, err = client.FilterLogs(ctx, q)
		return err
	})
	return logs, err
}

// Client returns the currently active underlying ethclient. Useful for
// wiring components that speak ethclient directly, like the token metadata
// provider.
func (c *ChainClient) Client() *ethclient.Client {
	return c.active()
}

// Close closes all dialed connections
func (c *ChainClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, client := range c.clients {
		if client != nil {
			client.Close()
		}
	}
}

// do runs fn against the current endpoint, failing over once to the next
// endpoint on error
func (c *ChainClient) do(ctx context.Context, op string, fn func(*ethclient.Client) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	err := fn(c.active())
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	next, switched := c.failover()
	if !switched {
		return apperrors.NewProviderError(op, err)
	}

	c.logger.WithError(err).WithField("operation", op).Warn("RPC call failed, retrying on fallback endpoint")

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := fn(next); err != nil {
		return apperrors.NewProviderError(op, err)
	}
	return nil
}

func (c *ChainClient) active() *ethclient.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clients[c.current]
}

// failover switches to the next endpoint, dialing it lazily. Returns false
// when there is no other endpoint to switch to.
func (c *ChainClient) failover() (*ethclient.Client, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.endpoints) < 2 {
		return nil, false
	}

	next := (c.current + 1) % len(c.endpoints)
	if c.clients[next] == nil {
		client, err := ethclient.Dial(c.endpoints[next])
		if err != nil {
			c.logger.WithError(err).WithField("endpoint", next).Error("Failed to dial fallback RPC endpoint")
			return nil, false
		}
		c.clients[next] = client
	}

	c.current = next
	return c.clients[next], true
}

// WaitForBlock blocks until the chain head reaches at least the target block,
// polling at the given interval
func (c *ChainClient) WaitForBlock(ctx context.Context, target uint64, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		head, err := c.BlockNumber(ctx)
		if err == nil && head >= target {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
