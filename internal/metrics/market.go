package metrics

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/lending-indexer/internal/models"
)

// MarketDelta carries one event's signed contribution to a market.
// Collateral is in raw token units; the USD fields are already priced.
type MarketDelta struct {
	Collateral           *big.Int
	CollateralUSD        decimal.Decimal
	DebtUSD              decimal.Decimal
	LiquidateUSD         decimal.Decimal
	TotalRevenueUSD      decimal.Decimal
	SupplySideRevenueUSD decimal.Decimal
}

// balanceInDecimalUnits converts a raw token balance to decimal units
func balanceInDecimalUnits(balance *big.Int, decimals int) decimal.Decimal {
	if balance == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(balance, -int32(decimals))
}

// ApplyMarketDelta folds one event into a market's balances, cumulative
// volumes and revenue. When the input token has a known price the deposit
// balance is marked to market (re-priced from the full held balance),
// overriding delta accumulation; otherwise the priced delta accumulates.
// The caller persists the market afterwards.
func ApplyMarketDelta(market *models.Market, token *models.Token, d MarketDelta) {
	if d.Collateral != nil && d.Collateral.Sign() != 0 {
		if market.InputTokenBalance == nil {
			market.InputTokenBalance = new(big.Int)
		}
		market.InputTokenBalance = new(big.Int).Add(market.InputTokenBalance, d.Collateral)
	}

	if price, ok := PriceOf(token); ok {
		market.InputTokenPriceUSD = price
		market.TotalDepositBalanceUSD = balanceInDecimalUnits(market.InputTokenBalance, token.Decimals).Mul(price)
	} else if !d.CollateralUSD.IsZero() {
		// no price known for the input token: fall back to accumulation
		market.TotalDepositBalanceUSD = market.TotalDepositBalanceUSD.Add(d.CollateralUSD)
	}
	market.TotalValueLockedUSD = market.TotalDepositBalanceUSD

	if d.Collateral != nil && d.Collateral.Sign() > 0 {
		market.CumulativeDepositUSD = market.CumulativeDepositUSD.Add(d.CollateralUSD)
	}
	// negative collateral deltas are withdrawals; cumulative withdraw volume
	// is not tracked at market scope

	if !d.DebtUSD.IsZero() {
		market.TotalBorrowBalanceUSD = market.TotalBorrowBalanceUSD.Add(d.DebtUSD)
		if d.DebtUSD.IsPositive() {
			market.CumulativeBorrowUSD = market.CumulativeBorrowUSD.Add(d.DebtUSD)
		}
	}

	if d.LiquidateUSD.IsPositive() {
		market.CumulativeLiquidateUSD = market.CumulativeLiquidateUSD.Add(d.LiquidateUSD)
	}

	if d.TotalRevenueUSD.IsPositive() {
		market.CumulativeTotalRevenueUSD = market.CumulativeTotalRevenueUSD.Add(d.TotalRevenueUSD)
	}
	if d.SupplySideRevenueUSD.IsPositive() {
		market.CumulativeSupplySideRevenueUSD = market.CumulativeSupplySideRevenueUSD.Add(d.SupplySideRevenueUSD)
	}
	if d.TotalRevenueUSD.IsPositive() || d.SupplySideRevenueUSD.IsPositive() {
		// always recomputed from the two accumulators, never summed
		// independently, so the identity holds at every save point
		market.CumulativeProtocolSideRevenueUSD = market.CumulativeTotalRevenueUSD.Sub(market.CumulativeSupplySideRevenueUSD)
	}
}

// MarkMarketToMarket re-prices a market's entire held balance from the
// token's latest price. Used by the price-update path, which carries no
// deltas of its own.
func MarkMarketToMarket(market *models.Market, token *models.Token) bool {
	price, ok := PriceOf(token)
	if !ok {
		return false
	}
	market.InputTokenPriceUSD = price
	market.TotalDepositBalanceUSD = balanceInDecimalUnits(market.InputTokenBalance, token.Decimals).Mul(price)
	market.TotalValueLockedUSD = market.TotalDepositBalanceUSD
	return true
}
