// Package events defines the decoded protocol event envelope consumed by the
// metrics engine. Decoding raw chain logs into these values happens upstream
// (internal/adapter); the engine never sees ABI-level data.
package events

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lending-indexer/internal/types"
)

// Event is one decoded protocol event, delivered in non-decreasing block
// order and non-decreasing log order within a block. Deltas are signed:
// positive collateral is a deposit, negative a withdrawal; positive debt a
// borrow, negative a repayment.
type Event struct {
	BlockNumber uint64
	Timestamp   int64
	TxHash      common.Hash
	LogIndex    uint

	// MarketID is the resolved market address. CollateralClass carries the
	// raw on-chain collateral identifier when only that is known; the engine
	// resolves it through the collateral-class mapping.
	MarketID        string
	CollateralClass string

	// Participating addresses, as applicable to the event. Absent addresses
	// are nil, never the zero address.
	Lender     *common.Address
	Borrower   *common.Address
	Liquidator *common.Address
	Liquidatee *common.Address

	DeltaCollateral    *big.Int
	DeltaCollateralUSD decimal.Decimal
	DeltaDebt          *big.Int
	DeltaDebtUSD       decimal.Decimal

	LiquidateAmount *big.Int
	LiquidateUSD    decimal.Decimal
	ProfitUSD       decimal.Decimal

	NewTotalRevenueUSD      decimal.Decimal
	NewSupplySideRevenueUSD decimal.Decimal
	RevenueSource           types.RevenueSource

	// AccruedRate is the raw per-unit debt rate delta from an accrual log.
	// Enrichment converts it into NewTotalRevenueUSD against the market's
	// outstanding debt balance.
	AccruedRate decimal.Decimal

	// PriceUpdate marks an oracle refresh for the market's input token.
	// It carries no deltas; the engine re-prices the market mark-to-market.
	PriceUpdate bool
	NewPriceUSD decimal.Decimal
}

// ID returns the deterministic identifier for this event, stable under replay
func (e *Event) ID() string {
	return fmt.Sprintf("%s-%d", strings.ToLower(e.TxHash.Hex()), e.LogIndex)
}

// LedgerID returns the deterministic id for the ledger record of the given
// type produced by this event
func (e *Event) LedgerID(t types.EventType) string {
	return fmt.Sprintf("%s-%s", strings.ToUpper(string(t)), e.ID())
}

// Classify maps the event onto exactly one transaction type by the sign of
// the relevant delta. Liquidation takes precedence, then collateral movement,
// then debt movement. Returns false for events that move nothing (pure price
// or revenue updates).
func (e *Event) Classify() (types.EventType, bool) {
	if e.LiquidateUSD.IsPositive() {
		return types.EventLiquidate, true
	}
	if e.DeltaCollateralUSD.IsPositive() {
		return types.EventDeposit, true
	}
	if e.DeltaCollateralUSD.IsNegative() {
		return types.EventWithdraw, true
	}
	if e.DeltaDebtUSD.IsPositive() {
		return types.EventBorrow, true
	}
	if e.DeltaDebtUSD.IsNegative() {
		return types.EventRepay, true
	}
	return "", false
}

// Addresses returns the distinct participating addresses in lowercase hex.
// Overlapping roles (an address acting as both borrower and liquidatee)
// appear once.
func (e *Event) Addresses() []string {
	seen := make(map[string]struct{}, 4)
	out := make([]string, 0, 4)
	for _, a := range []*common.Address{e.Lender, e.Borrower, e.Liquidator, e.Liquidatee} {
		if a == nil {
			continue
		}
		id := strings.ToLower(a.Hex())
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
