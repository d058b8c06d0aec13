package metrics

import (
	"context"

	"github.com/shopspring/decimal"

	indexerrors "github.com/lending-indexer/internal/errors"
	"github.com/lending-indexer/internal/events"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/models"
)

// EngineConfig binds an engine to one protocol deployment
type EngineConfig struct {
	Protocol  ProtocolDefaults
	DebtAsset string
}

// Engine is the per-event entry point. Apply processes one decoded event to
// completion, covering entity resolution, market and protocol aggregation,
// revenue decomposition, usage tracking, snapshot rollover, and ledger rows,
// before the caller hands it the next one. Events must arrive in non-decreasing block
// order and non-decreasing log order within a block.
//
// The engine accumulates blindly: replay protection (dropping an already
// processed event id) belongs to the ingestion boundary in front of it.
type Engine struct {
	store     Store
	resolver  *Resolver
	snapshots *Snapshots
	usage     *UsageTracker
	ledger    *Ledger
	logger    *logging.Logger
}

// NewEngine wires the aggregation core over an entity store and ledger store
func NewEngine(store Store, ledgerStore LedgerStore, logger *logging.Logger, cfg EngineConfig) *Engine {
	resolver := NewResolver(store, logger, cfg.Protocol)
	snapshots := NewSnapshots(store, logger)
	return &Engine{
		store:     store,
		resolver:  resolver,
		snapshots: snapshots,
		usage:     NewUsageTracker(store, resolver, snapshots, logger),
		ledger:    NewLedger(ledgerStore, logger, cfg.DebtAsset),
		logger:    logger,
	}
}

// Resolver exposes the engine's entity resolver for boundary wiring (seeding
// collateral-class mappings, token metadata)
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Apply folds one event into the persisted analytics entities
func (e *Engine) Apply(ctx context.Context, ev *events.Event) error {
	protocol, err := e.resolver.Protocol(ctx)
	if err != nil {
		return err
	}

	market, err := e.resolveMarket(ctx, protocol, ev)
	if err != nil {
		if indexerrors.IsFatal(err) {
			return err
		}
		// missing market: dependent aggregation is skipped, usage still counts
		e.logger.WithError(err).WithField("eventId", ev.ID()).Warn("event references an unresolvable market")
		market = nil
	}

	if ev.PriceUpdate {
		return e.applyPriceUpdate(ctx, protocol, market, ev)
	}

	e.sanitize(ev)

	if market != nil {
		token, err := e.resolver.Token(ctx, market.InputToken, DefaultTokenDefaults())
		if err != nil {
			return err
		}
		ApplyMarketDelta(market, token, MarketDelta{
			Collateral:           ev.DeltaCollateral,
			CollateralUSD:        ev.DeltaCollateralUSD,
			DebtUSD:              ev.DeltaDebtUSD,
			LiquidateUSD:         ev.LiquidateUSD,
			TotalRevenueUSD:      ev.NewTotalRevenueUSD,
			SupplySideRevenueUSD: ev.NewSupplySideRevenueUSD,
		})
		if err := e.store.SaveMarket(ctx, market); err != nil {
			return indexerrors.NewStoreError("save market", err)
		}

		if err := ApplyProtocolDelta(ctx, e.store, e.logger, protocol, ProtocolDelta{
			CollateralUSD:        ev.DeltaCollateralUSD,
			DebtUSD:              ev.DeltaDebtUSD,
			LiquidateUSD:         ev.LiquidateUSD,
			TotalRevenueUSD:      ev.NewTotalRevenueUSD,
			SupplySideRevenueUSD: ev.NewSupplySideRevenueUSD,
			RevenueSource:        ev.RevenueSource,
		}); err != nil {
			return err
		}
		if err := e.store.SaveProtocol(ctx, protocol); err != nil {
			return indexerrors.NewStoreError("save protocol", err)
		}
	}

	if err := e.usage.Update(ctx, protocol, ev); err != nil {
		return err
	}

	if market != nil {
		if err := e.snapshots.UpdateFinancials(ctx, protocol, ev, ProtocolDelta{
			CollateralUSD:        ev.DeltaCollateralUSD,
			DebtUSD:              ev.DeltaDebtUSD,
			LiquidateUSD:         ev.LiquidateUSD,
			TotalRevenueUSD:      ev.NewTotalRevenueUSD,
			SupplySideRevenueUSD: ev.NewSupplySideRevenueUSD,
			RevenueSource:        ev.RevenueSource,
		}); err != nil {
			return err
		}

		if err := e.ledger.Record(ctx, market, ev); err != nil {
			return err
		}
	}

	return nil
}

// applyPriceUpdate re-prices one market from the oracle's new price,
// re-derives protocol totals by full scan, and refreshes the financials
// snapshot with no period-local contribution
func (e *Engine) applyPriceUpdate(ctx context.Context, protocol *models.Protocol, market *models.Market, ev *events.Event) error {
	if market == nil {
		return nil
	}

	token, err := e.resolver.Token(ctx, market.InputToken, DefaultTokenDefaults())
	if err != nil {
		return err
	}
	price := ev.NewPriceUSD
	token.LastPriceUSD = &price
	if err := e.store.SaveToken(ctx, token); err != nil {
		return indexerrors.NewStoreError("save token", err)
	}

	MarkMarketToMarket(market, token)
	if err := e.store.SaveMarket(ctx, market); err != nil {
		return indexerrors.NewStoreError("save market", err)
	}

	if err := RecomputeProtocolTotals(ctx, e.store, e.logger, protocol); err != nil {
		return err
	}
	if err := e.store.SaveProtocol(ctx, protocol); err != nil {
		return indexerrors.NewStoreError("save protocol", err)
	}

	return e.snapshots.UpdateFinancials(ctx, protocol, ev, ProtocolDelta{})
}

// resolveMarket finds the event's market by id or through the collateral
// class mapping. Returns a missing-reference error when neither resolves.
func (e *Engine) resolveMarket(ctx context.Context, protocol *models.Protocol, ev *events.Event) (*models.Market, error) {
	if ev.MarketID != "" {
		return e.resolver.Market(ctx, protocol, ev.MarketID, MarketDefaults{
			BlockNumber: ev.BlockNumber,
			Timestamp:   ev.Timestamp,
		})
	}
	if ev.CollateralClass != "" {
		return e.resolver.MarketForCollateral(ctx, protocol, ev.CollateralClass)
	}
	return nil, indexerrors.NewMissingMarketError("")
}

// sanitize checks invariant-level expectations on the event's inputs,
// emitting a diagnostic for each violation. An invalid field only voids the
// sub-update it feeds: the rest of the event (collateral and debt deltas,
// usage counting) still applies.
func (e *Engine) sanitize(ev *events.Event) {
	if ev.LiquidateUSD.IsNegative() {
		e.logger.WithField("eventId", ev.ID()).Warn("negative liquidation amount, skipping liquidation update")
		ev.LiquidateUSD = decimal.Zero
		ev.ProfitUSD = decimal.Zero
		ev.LiquidateAmount = nil
	}
	if ev.NewTotalRevenueUSD.IsNegative() || ev.NewSupplySideRevenueUSD.IsNegative() {
		e.logger.WithField("eventId", ev.ID()).Warn("negative revenue input, skipping revenue update")
		ev.NewTotalRevenueUSD = decimal.Zero
		ev.NewSupplySideRevenueUSD = decimal.Zero
	}
	if ProtocolSideRevenue(ev.NewTotalRevenueUSD, ev.NewSupplySideRevenueUSD).IsPositive() && !ev.RevenueSource.Valid() {
		e.logger.WithFields(map[string]interface{}{
			"eventId": ev.ID(),
			"source":  int(ev.RevenueSource),
		}).Warn("unknown revenue source, protocol-side breakdown will not be attributed")
	}
}
