// Package metrics is the aggregation core of the indexer. It turns the
// ordered stream of decoded protocol events into protocol-wide totals,
// per-market totals, time-bucketed snapshots, and unique/active-user counts.
package metrics

import (
	"context"

	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

// Store is the persistent entity store the engine writes through. Get
// methods return (nil, nil) when the entity is absent; any non-nil error is a
// store-layer failure and fatal to the event being processed.
//
// The engine is the single writer: all loads, computations and saves for one
// event complete before the next event is considered, so no locking happens
// at this layer.
type Store interface {
	GetProtocol(ctx context.Context, id string) (*models.Protocol, error)
	SaveProtocol(ctx context.Context, p *models.Protocol) error

	GetMarket(ctx context.Context, id string) (*models.Market, error)
	SaveMarket(ctx context.Context, m *models.Market) error

	GetToken(ctx context.Context, id string) (*models.Token, error)
	SaveToken(ctx context.Context, t *models.Token) error

	GetCollateralClass(ctx context.Context, id string) (*models.CollateralClass, error)
	SaveCollateralClass(ctx context.Context, c *models.CollateralClass) error

	GetAccount(ctx context.Context, id string) (*models.Account, error)
	SaveAccount(ctx context.Context, a *models.Account) error

	GetActiveAccount(ctx context.Context, id string) (*models.ActiveAccount, error)
	SaveActiveAccount(ctx context.Context, a *models.ActiveAccount) error

	GetUsageSnapshot(ctx context.Context, granularity types.Granularity, id string) (*models.UsageSnapshot, error)
	SaveUsageSnapshot(ctx context.Context, s *models.UsageSnapshot) error

	GetFinancialsSnapshot(ctx context.Context, id string) (*models.FinancialsSnapshot, error)
	SaveFinancialsSnapshot(ctx context.Context, s *models.FinancialsSnapshot) error
}

// LedgerStore persists the append-only transaction records. HasLedgerEntry
// backs the at-most-once guarantee under replay.
type LedgerStore interface {
	HasLedgerEntry(ctx context.Context, id string) (bool, error)
	InsertLedgerEntry(ctx context.Context, e *models.LedgerEntry) error
}
