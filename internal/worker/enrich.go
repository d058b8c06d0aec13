// Package worker runs the ingestion pipeline: decoded events are enriched
// with USD values, deduplicated, then folded into the metrics engine with
// retry on store failures.
package worker

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lending-indexer/internal/events"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/metrics"
	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/pricing"
	"github.com/lending-indexer/internal/types"
)

// Enricher fills in the USD fields of decoded events. Collateral is priced
// from the input token's last oracle price; debt is the protocol's
// USD-pegged stablecoin and prices at one dollar. Rate accruals convert to
// revenue against the market's outstanding debt balance.
type Enricher struct {
	store    metrics.Store
	resolver *metrics.Resolver
	prices   *pricing.PriceCache
	meta     pricing.MetadataProvider
	logger   *logging.Logger
}

// NewEnricher creates an enricher. meta may be nil when no metadata provider
// is configured.
func NewEnricher(store metrics.Store, resolver *metrics.Resolver, prices *pricing.PriceCache, meta pricing.MetadataProvider, logger *logging.Logger) *Enricher {
	return &Enricher{
		store:    store,
		resolver: resolver,
		prices:   prices,
		meta:     meta,
		logger:   logger,
	}
}

// Enrich prices the event in USD in place. A collateral class seen for the
// first time seeds its market and class mapping; the market id is the class
// identifier itself. Pricing gaps are not errors: unpriced fields stay zero
// and the engine falls back accordingly.
func (e *Enricher) Enrich(ctx context.Context, ev *events.Event) error {
	if ev.CollateralClass == "" {
		return nil
	}

	protocol, err := e.resolver.Protocol(ctx)
	if err != nil {
		return err
	}

	market, err := e.resolver.Market(ctx, protocol, ev.CollateralClass, metrics.MarketDefaults{
		Name:        ev.CollateralClass,
		InputToken:  ev.CollateralClass,
		BlockNumber: ev.BlockNumber,
		Timestamp:   ev.Timestamp,
	})
	if err != nil {
		return err
	}
	if err := e.resolver.MapCollateralClass(ctx, ev.CollateralClass, market.ID); err != nil {
		return err
	}

	token, err := e.resolver.Token(ctx, market.InputToken, metrics.DefaultTokenDefaults())
	if err != nil {
		return err
	}
	e.fillTokenMetadata(ctx, token)

	price, priced := metrics.PriceOf(token)
	if !priced && e.prices != nil {
		if cached, ok, err := e.prices.GetPrice(ctx, token.ID); err == nil && ok {
			price, priced = cached, true
		}
	}

	if ev.PriceUpdate {
		if e.prices != nil {
			if err := e.prices.SetPrice(ctx, token.ID, ev.NewPriceUSD); err != nil {
				e.logger.WithError(err).Warn("Failed to warm price cache")
			}
		}
		return nil
	}

	if priced {
		if ev.DeltaCollateral != nil && ev.DeltaCollateral.Sign() != 0 {
			ev.DeltaCollateralUSD = decimal.NewFromBigInt(ev.DeltaCollateral, -int32(token.Decimals)).Mul(price)
		}
		if ev.LiquidateAmount != nil && ev.LiquidateAmount.Sign() > 0 {
			ev.LiquidateUSD = decimal.NewFromBigInt(ev.LiquidateAmount, -int32(token.Decimals)).Mul(price)
			ev.ProfitUSD = ev.LiquidateUSD.Mul(market.RiskParameters.LiquidationPenalty)
			if ev.ProfitUSD.IsPositive() {
				// penalty income lands entirely on the protocol side
				ev.NewTotalRevenueUSD = ev.ProfitUSD
				ev.NewSupplySideRevenueUSD = decimal.Zero
				ev.RevenueSource = types.RevenueSourceLiquidation
			}
		}
	}

	// debt moves in the protocol's stablecoin, pegged to one dollar
	if ev.DeltaDebt != nil && ev.DeltaDebt.Sign() != 0 {
		ev.DeltaDebtUSD = decimal.NewFromBigInt(ev.DeltaDebt, -18)
	}

	if ev.AccruedRate.IsPositive() {
		revenue := market.TotalBorrowBalanceUSD.Mul(ev.AccruedRate)
		if revenue.IsPositive() {
			// stability fees accrue entirely to the protocol side
			ev.NewTotalRevenueUSD = revenue
			ev.NewSupplySideRevenueUSD = decimal.Zero
		}
	}

	return nil
}

// fillTokenMetadata backfills name, symbol and decimals from the metadata
// provider for address-shaped token ids that still carry placeholder values.
// Provider failures are logged and left for a later event to retry.
func (e *Enricher) fillTokenMetadata(ctx context.Context, token *models.Token) {
	if e.meta == nil || token.Name != "unknown" || !isAddress(token.ID) {
		return
	}

	meta, err := e.meta.TokenMetadata(ctx, token.ID)
	if err != nil {
		e.logger.WithError(err).WithField("token", token.ID).Warn("Token metadata lookup failed")
		return
	}

	if meta.Name != "" {
		token.Name = meta.Name
	}
	if meta.Symbol != "" {
		token.Symbol = meta.Symbol
	}
	token.Decimals = int(meta.Decimals)

	if err := e.store.SaveToken(ctx, token); err != nil {
		e.logger.WithError(err).WithField("token", token.ID).Warn("Failed to persist token metadata")
	}
}

func isAddress(id string) bool {
	return len(id) == 42 && strings.HasPrefix(id, "0x")
}
