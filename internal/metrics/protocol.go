package metrics

import (
	"context"

	"github.com/shopspring/decimal"

	indexerrors "github.com/lending-indexer/internal/errors"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

// ProtocolDelta carries one event's contribution at protocol scope
type ProtocolDelta struct {
	CollateralUSD        decimal.Decimal
	DebtUSD              decimal.Decimal
	LiquidateUSD         decimal.Decimal
	TotalRevenueUSD      decimal.Decimal
	SupplySideRevenueUSD decimal.Decimal
	RevenueSource        types.RevenueSource
}

// RecomputeProtocolTotals replaces the protocol's deposit and borrow
// balances with the sums over every market in MarketIDList. A full recompute
// rather than an incremental update: this is what guarantees
// protocol.totalDepositBalanceUSD == sum(market.totalDepositBalanceUSD)
// after every event. A market id with no stored market is logged and
// skipped, never fatal.
func RecomputeProtocolTotals(ctx context.Context, store Store, logger *logging.Logger, p *models.Protocol) error {
	totalDeposit := decimal.Zero
	totalBorrow := decimal.Zero
	for _, marketID := range p.MarketIDList {
		market, err := store.GetMarket(ctx, marketID)
		if err != nil {
			return indexerrors.NewStoreError("scan market", err)
		}
		if market == nil {
			logger.WithField("marketId", marketID).Warn("market in protocol list does not exist, skipping")
			continue
		}
		totalDeposit = totalDeposit.Add(market.TotalDepositBalanceUSD)
		totalBorrow = totalBorrow.Add(market.TotalBorrowBalanceUSD)
	}
	p.TotalDepositBalanceUSD = totalDeposit
	p.TotalBorrowBalanceUSD = totalBorrow
	p.TotalValueLockedUSD = p.TotalDepositBalanceUSD
	return nil
}

// ApplyProtocolDelta folds one event into the protocol aggregate: balances
// by full scan over the markets, cumulative counters from the event's own
// deltas, revenue through the decomposition rules. The caller persists the
// protocol afterwards.
func ApplyProtocolDelta(ctx context.Context, store Store, logger *logging.Logger, p *models.Protocol, d ProtocolDelta) error {
	if d.CollateralUSD.IsPositive() {
		p.CumulativeDepositUSD = p.CumulativeDepositUSD.Add(d.CollateralUSD)
	}

	if err := RecomputeProtocolTotals(ctx, store, logger, p); err != nil {
		return err
	}

	if d.DebtUSD.IsPositive() {
		p.CumulativeBorrowUSD = p.CumulativeBorrowUSD.Add(d.DebtUSD)
	}
	if d.LiquidateUSD.IsPositive() {
		p.CumulativeLiquidateUSD = p.CumulativeLiquidateUSD.Add(d.LiquidateUSD)
	}

	AccrueProtocolRevenue(p, d.TotalRevenueUSD, d.SupplySideRevenueUSD, d.RevenueSource)
	return nil
}
