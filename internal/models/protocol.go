// Package models provides the persisted entity definitions for the lending indexer.
package models

import (
	"github.com/shopspring/decimal"

	"github.com/lending-indexer/internal/types"
)

// Protocol is the singleton aggregate root for protocol-wide totals.
// Balance fields are re-derived by a full scan over MarketIDList, never
// accumulated incrementally; cumulative fields only ever increase.
type Protocol struct {
	ID      string        `json:"id" db:"id"`
	Name    string        `json:"name" db:"name"`
	Slug    string        `json:"slug" db:"slug"`
	Network types.ChainID `json:"network" db:"network"`

	CumulativeUniqueUsers int `json:"cumulativeUniqueUsers" db:"cumulative_unique_users"`
	TotalPoolCount        int `json:"totalPoolCount" db:"total_pool_count"`

	TotalValueLockedUSD    decimal.Decimal `json:"totalValueLockedUsd" db:"total_value_locked_usd"`
	TotalDepositBalanceUSD decimal.Decimal `json:"totalDepositBalanceUsd" db:"total_deposit_balance_usd"`
	TotalBorrowBalanceUSD  decimal.Decimal `json:"totalBorrowBalanceUsd" db:"total_borrow_balance_usd"`

	CumulativeDepositUSD   decimal.Decimal `json:"cumulativeDepositUsd" db:"cumulative_deposit_usd"`
	CumulativeBorrowUSD    decimal.Decimal `json:"cumulativeBorrowUsd" db:"cumulative_borrow_usd"`
	CumulativeLiquidateUSD decimal.Decimal `json:"cumulativeLiquidateUsd" db:"cumulative_liquidate_usd"`

	CumulativeSupplySideRevenueUSD   decimal.Decimal `json:"cumulativeSupplySideRevenueUsd" db:"cumulative_supply_side_revenue_usd"`
	CumulativeProtocolSideRevenueUSD decimal.Decimal `json:"cumulativeProtocolSideRevenueUsd" db:"cumulative_protocol_side_revenue_usd"`
	CumulativeTotalRevenueUSD        decimal.Decimal `json:"cumulativeTotalRevenueUsd" db:"cumulative_total_revenue_usd"`

	// Informational breakdown of protocol-side revenue by source.
	// The sum of these is not the source of truth for the protocol-side total.
	CumulativeStabilityFeeRevenueUSD  decimal.Decimal `json:"cumulativeStabilityFeeRevenueUsd" db:"cumulative_stability_fee_revenue_usd"`
	CumulativeLiquidationRevenueUSD   decimal.Decimal `json:"cumulativeLiquidationRevenueUsd" db:"cumulative_liquidation_revenue_usd"`
	CumulativeStabilizationRevenueUSD decimal.Decimal `json:"cumulativeStabilizationRevenueUsd" db:"cumulative_stabilization_revenue_usd"`

	MarketIDList []string `json:"marketIdList" db:"market_id_list"`
}
