package models

import (
	"github.com/shopspring/decimal"

	"github.com/lending-indexer/internal/types"
)

// UsageSnapshot holds usage counters for one daily or hourly bucket.
// Carried fields (CumulativeUniqueUsers, TotalPoolCount) mirror the protocol
// as of the last contributing event; the rest are period-local and start at
// zero when the bucket is first touched.
type UsageSnapshot struct {
	ID          string            `json:"id" db:"id"`
	Granularity types.Granularity `json:"granularity" db:"granularity"`

	ActiveUsers           int `json:"activeUsers" db:"active_users"`
	CumulativeUniqueUsers int `json:"cumulativeUniqueUsers" db:"cumulative_unique_users"`
	TotalPoolCount        int `json:"totalPoolCount" db:"total_pool_count"`

	TransactionCount int `json:"transactionCount" db:"transaction_count"`
	DepositCount     int `json:"depositCount" db:"deposit_count"`
	WithdrawCount    int `json:"withdrawCount" db:"withdraw_count"`
	BorrowCount      int `json:"borrowCount" db:"borrow_count"`
	RepayCount       int `json:"repayCount" db:"repay_count"`
	LiquidateCount   int `json:"liquidateCount" db:"liquidate_count"`

	BlockNumber uint64 `json:"blockNumber" db:"block_number"`
	Timestamp   int64  `json:"timestamp" db:"timestamp"`
}

// FinancialsSnapshot holds financial counters for one daily bucket.
// Cumulative and balance fields are carried from the protocol aggregate on
// every touch; Daily* fields are period-local and monotonic within the bucket.
type FinancialsSnapshot struct {
	ID string `json:"id" db:"id"`

	TotalValueLockedUSD    decimal.Decimal `json:"totalValueLockedUsd" db:"total_value_locked_usd"`
	TotalDepositBalanceUSD decimal.Decimal `json:"totalDepositBalanceUsd" db:"total_deposit_balance_usd"`
	TotalBorrowBalanceUSD  decimal.Decimal `json:"totalBorrowBalanceUsd" db:"total_borrow_balance_usd"`

	CumulativeDepositUSD   decimal.Decimal `json:"cumulativeDepositUsd" db:"cumulative_deposit_usd"`
	CumulativeBorrowUSD    decimal.Decimal `json:"cumulativeBorrowUsd" db:"cumulative_borrow_usd"`
	CumulativeLiquidateUSD decimal.Decimal `json:"cumulativeLiquidateUsd" db:"cumulative_liquidate_usd"`

	CumulativeSupplySideRevenueUSD   decimal.Decimal `json:"cumulativeSupplySideRevenueUsd" db:"cumulative_supply_side_revenue_usd"`
	CumulativeProtocolSideRevenueUSD decimal.Decimal `json:"cumulativeProtocolSideRevenueUsd" db:"cumulative_protocol_side_revenue_usd"`
	CumulativeTotalRevenueUSD        decimal.Decimal `json:"cumulativeTotalRevenueUsd" db:"cumulative_total_revenue_usd"`

	CumulativeStabilityFeeRevenueUSD  decimal.Decimal `json:"cumulativeStabilityFeeRevenueUsd" db:"cumulative_stability_fee_revenue_usd"`
	CumulativeLiquidationRevenueUSD   decimal.Decimal `json:"cumulativeLiquidationRevenueUsd" db:"cumulative_liquidation_revenue_usd"`
	CumulativeStabilizationRevenueUSD decimal.Decimal `json:"cumulativeStabilizationRevenueUsd" db:"cumulative_stabilization_revenue_usd"`

	DailyDepositUSD   decimal.Decimal `json:"dailyDepositUsd" db:"daily_deposit_usd"`
	DailyWithdrawUSD  decimal.Decimal `json:"dailyWithdrawUsd" db:"daily_withdraw_usd"`
	DailyBorrowUSD    decimal.Decimal `json:"dailyBorrowUsd" db:"daily_borrow_usd"`
	DailyRepayUSD     decimal.Decimal `json:"dailyRepayUsd" db:"daily_repay_usd"`
	DailyLiquidateUSD decimal.Decimal `json:"dailyLiquidateUsd" db:"daily_liquidate_usd"`

	DailySupplySideRevenueUSD   decimal.Decimal `json:"dailySupplySideRevenueUsd" db:"daily_supply_side_revenue_usd"`
	DailyProtocolSideRevenueUSD decimal.Decimal `json:"dailyProtocolSideRevenueUsd" db:"daily_protocol_side_revenue_usd"`
	DailyTotalRevenueUSD        decimal.Decimal `json:"dailyTotalRevenueUsd" db:"daily_total_revenue_usd"`

	DailyStabilityFeeRevenueUSD  decimal.Decimal `json:"dailyStabilityFeeRevenueUsd" db:"daily_stability_fee_revenue_usd"`
	DailyLiquidationRevenueUSD   decimal.Decimal `json:"dailyLiquidationRevenueUsd" db:"daily_liquidation_revenue_usd"`
	DailyStabilizationRevenueUSD decimal.Decimal `json:"dailyStabilizationRevenueUsd" db:"daily_stabilization_revenue_usd"`

	BlockNumber uint64 `json:"blockNumber" db:"block_number"`
	Timestamp   int64  `json:"timestamp" db:"timestamp"`
}
