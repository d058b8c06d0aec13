package models

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// RiskParameters holds the lending risk configuration of a market
type RiskParameters struct {
	MaximumLTV           decimal.Decimal `json:"maximumLtv" db:"maximum_ltv"`
	LiquidationThreshold decimal.Decimal `json:"liquidationThreshold" db:"liquidation_threshold"`
	LiquidationPenalty   decimal.Decimal `json:"liquidationPenalty" db:"liquidation_penalty"`
}

// Market represents one collateral/lending pool.
// InputTokenBalance is the raw on-chain balance; TotalDepositBalanceUSD is
// mark-to-market (balance x last price) whenever a price is known.
type Market struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	InputToken string `json:"inputToken" db:"input_token"`

	InputTokenBalance  *big.Int        `json:"inputTokenBalance" db:"input_token_balance"`
	InputTokenPriceUSD decimal.Decimal `json:"inputTokenPriceUsd" db:"input_token_price_usd"`

	TotalValueLockedUSD    decimal.Decimal `json:"totalValueLockedUsd" db:"total_value_locked_usd"`
	TotalDepositBalanceUSD decimal.Decimal `json:"totalDepositBalanceUsd" db:"total_deposit_balance_usd"`
	TotalBorrowBalanceUSD  decimal.Decimal `json:"totalBorrowBalanceUsd" db:"total_borrow_balance_usd"`

	CumulativeDepositUSD   decimal.Decimal `json:"cumulativeDepositUsd" db:"cumulative_deposit_usd"`
	CumulativeBorrowUSD    decimal.Decimal `json:"cumulativeBorrowUsd" db:"cumulative_borrow_usd"`
	CumulativeLiquidateUSD decimal.Decimal `json:"cumulativeLiquidateUsd" db:"cumulative_liquidate_usd"`

	CumulativeSupplySideRevenueUSD   decimal.Decimal `json:"cumulativeSupplySideRevenueUsd" db:"cumulative_supply_side_revenue_usd"`
	CumulativeProtocolSideRevenueUSD decimal.Decimal `json:"cumulativeProtocolSideRevenueUsd" db:"cumulative_protocol_side_revenue_usd"`
	CumulativeTotalRevenueUSD        decimal.Decimal `json:"cumulativeTotalRevenueUsd" db:"cumulative_total_revenue_usd"`

	RiskParameters RiskParameters `json:"riskParameters" db:"risk_parameters"`

	CreatedBlockNumber uint64 `json:"createdBlockNumber" db:"created_block_number"`
	CreatedTimestamp   int64  `json:"createdTimestamp" db:"created_timestamp"`
}

// Token represents an ERC-20 input token referenced by a market
type Token struct {
	ID           string           `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Symbol       string           `json:"symbol" db:"symbol"`
	Decimals     int              `json:"decimals" db:"decimals"`
	LastPriceUSD *decimal.Decimal `json:"lastPriceUsd,omitempty" db:"last_price_usd"`
}

// CollateralClass maps an on-chain collateral class identifier (ilk) to a market
type CollateralClass struct {
	ID       string `json:"id" db:"id"`
	MarketID string `json:"marketId" db:"market_id"`
}
