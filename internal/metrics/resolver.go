package metrics

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	indexerrors "github.com/lending-indexer/internal/errors"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

// ZeroAddress is the canonical empty address id
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// ProtocolDefaults fixes the initial field values of the Protocol singleton
type ProtocolDefaults struct {
	ID      string
	Name    string
	Slug    string
	Network types.ChainID
}

// MarketDefaults fixes the initial field values of a new Market. Every field
// a creation site can vary is spelled out here; everything else starts zero.
type MarketDefaults struct {
	Name        string
	InputToken  string
	BlockNumber uint64
	Timestamp   int64
}

// TokenDefaults fixes the initial field values of a new Token
type TokenDefaults struct {
	Name     string
	Symbol   string
	Decimals int
}

// DefaultTokenDefaults are used when nothing is known about a token
func DefaultTokenDefaults() TokenDefaults {
	return TokenDefaults{Name: "unknown", Symbol: "unknown", Decimals: 18}
}

// Resolver provides idempotent get-or-create for every persisted entity
// kind. A pre-existing entity is returned unchanged; a new entity is
// initialized from the supplied defaults, persisted, and returned. Creation
// of a Market or Account also updates the owning Protocol's list and
// counters, exactly once.
//
// Resolver is not reentrant mid-event; callers treat create-then-mutate as a
// single step per event.
type Resolver struct {
	store    Store
	logger   *logging.Logger
	defaults ProtocolDefaults
}

// NewResolver creates a resolver bound to one protocol deployment
func NewResolver(store Store, logger *logging.Logger, defaults ProtocolDefaults) *Resolver {
	return &Resolver{store: store, logger: logger, defaults: defaults}
}

// Protocol resolves the protocol singleton, creating it on first access
func (r *Resolver) Protocol(ctx context.Context) (*models.Protocol, error) {
	p, err := r.store.GetProtocol(ctx, r.defaults.ID)
	if err != nil {
		return nil, indexerrors.NewStoreError("get protocol", err)
	}
	if p != nil {
		return p, nil
	}

	p = &models.Protocol{
		ID:           r.defaults.ID,
		Name:         r.defaults.Name,
		Slug:         r.defaults.Slug,
		Network:      r.defaults.Network,
		MarketIDList: []string{},
	}
	if err := r.store.SaveProtocol(ctx, p); err != nil {
		return nil, indexerrors.NewStoreError("create protocol", err)
	}
	return p, nil
}

// Market resolves a market by id, creating it with the given defaults on
// first reference. Creation appends the id to protocol.MarketIDList and
// increments TotalPoolCount; both mutations are persisted before returning.
func (r *Resolver) Market(ctx context.Context, protocol *models.Protocol, id string, d MarketDefaults) (*models.Market, error) {
	m, err := r.store.GetMarket(ctx, id)
	if err != nil {
		return nil, indexerrors.NewStoreError("get market", err)
	}
	if m != nil {
		return m, nil
	}

	if id == ZeroAddress {
		r.logger.WithField("marketId", id).Warn("creating a market with the zero address id")
	}
	if d.Name == "" {
		d.Name = "unknown"
	}
	if d.InputToken == "" {
		d.InputToken = ZeroAddress
	}

	m = &models.Market{
		ID:                 id,
		Name:               d.Name,
		InputToken:         d.InputToken,
		InputTokenBalance:  new(big.Int),
		CreatedBlockNumber: d.BlockNumber,
		CreatedTimestamp:   d.Timestamp,
	}
	if err := r.store.SaveMarket(ctx, m); err != nil {
		return nil, indexerrors.NewStoreError("create market", err)
	}

	protocol.MarketIDList = append(protocol.MarketIDList, id)
	protocol.TotalPoolCount++
	if err := r.store.SaveProtocol(ctx, protocol); err != nil {
		return nil, indexerrors.NewStoreError("register market on protocol", err)
	}
	return m, nil
}

// Token resolves a token by id, creating it with the given defaults on first
// reference. LastPriceUSD starts absent; a token with no known price falls
// back to delta accumulation in the market aggregator.
func (r *Resolver) Token(ctx context.Context, id string, d TokenDefaults) (*models.Token, error) {
	t, err := r.store.GetToken(ctx, id)
	if err != nil {
		return nil, indexerrors.NewStoreError("get token", err)
	}
	if t != nil {
		return t, nil
	}

	t = &models.Token{
		ID:       id,
		Name:     d.Name,
		Symbol:   d.Symbol,
		Decimals: d.Decimals,
	}
	if err := r.store.SaveToken(ctx, t); err != nil {
		return nil, indexerrors.NewStoreError("create token", err)
	}
	return t, nil
}

// Account resolves an address marker, creating it on the address's first
// event. Creation increments protocol.CumulativeUniqueUsers exactly once and
// reports created=true so per-bucket counters can follow.
func (r *Resolver) Account(ctx context.Context, protocol *models.Protocol, id string) (*models.Account, bool, error) {
	a, err := r.store.GetAccount(ctx, id)
	if err != nil {
		return nil, false, indexerrors.NewStoreError("get account", err)
	}
	if a != nil {
		return a, false, nil
	}

	a = &models.Account{ID: id}
	if err := r.store.SaveAccount(ctx, a); err != nil {
		return nil, false, indexerrors.NewStoreError("create account", err)
	}
	protocol.CumulativeUniqueUsers++
	if err := r.store.SaveProtocol(ctx, protocol); err != nil {
		return nil, false, indexerrors.NewStoreError("count unique user", err)
	}
	return a, true, nil
}

// ActiveAccount resolves the address-active-in-bucket marker for the given
// granularity and event timestamp. Creation happens at most once per bucket
// and is the sole trigger for the matching active-user counter.
func (r *Resolver) ActiveAccount(ctx context.Context, granularity types.Granularity, address string, timestamp int64) (*models.ActiveAccount, bool, error) {
	id := ActiveAccountID(granularity, address, timestamp)
	a, err := r.store.GetActiveAccount(ctx, id)
	if err != nil {
		return nil, false, indexerrors.NewStoreError("get active account", err)
	}
	if a != nil {
		return a, false, nil
	}

	a = &models.ActiveAccount{
		ID:          id,
		AccountID:   address,
		Granularity: granularity,
		BucketIndex: BucketIndex(granularity, timestamp),
	}
	if err := r.store.SaveActiveAccount(ctx, a); err != nil {
		return nil, false, indexerrors.NewStoreError("create active account", err)
	}
	return a, true, nil
}

// MapCollateralClass records the collateral class -> market mapping on first
// sight; an existing mapping is left unchanged
func (r *Resolver) MapCollateralClass(ctx context.Context, class, marketID string) error {
	c, err := r.store.GetCollateralClass(ctx, class)
	if err != nil {
		return indexerrors.NewStoreError("get collateral class", err)
	}
	if c != nil {
		return nil
	}
	c = &models.CollateralClass{ID: class, MarketID: marketID}
	if err := r.store.SaveCollateralClass(ctx, c); err != nil {
		return indexerrors.NewStoreError("create collateral class", err)
	}
	return nil
}

// MarketForCollateral resolves the market backing an on-chain collateral
// class. An unmapped class is a missing-reference condition: the caller
// skips the dependent computation and continues.
func (r *Resolver) MarketForCollateral(ctx context.Context, protocol *models.Protocol, class string) (*models.Market, error) {
	c, err := r.store.GetCollateralClass(ctx, class)
	if err != nil {
		return nil, indexerrors.NewStoreError("get collateral class", err)
	}
	if c == nil {
		return nil, indexerrors.NewMissingCollateralClassError(class)
	}
	return r.Market(ctx, protocol, c.MarketID, MarketDefaults{})
}

// PriceOf returns the last known USD price of a token and whether one exists
func PriceOf(t *models.Token) (decimal.Decimal, bool) {
	if t == nil || t.LastPriceUSD == nil {
		return decimal.Zero, false
	}
	return *t.LastPriceUSD, true
}
