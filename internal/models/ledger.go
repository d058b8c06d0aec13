package models

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/lending-indexer/internal/types"
)

// LedgerEntry is one immutable ledger line per qualifying event, stored in
// ClickHouse. ID is deterministic (event type + tx hash + log index) so a
// replayed event maps to the same row and is written at most once.
type LedgerEntry struct {
	ID        string          `json:"id" ch:"id"`
	EventType types.EventType `json:"eventType" ch:"event_type"`
	Hash      string          `json:"hash" ch:"hash"`
	LogIndex  uint            `json:"logIndex" ch:"log_index"`

	Market string `json:"market" ch:"market"`
	Asset  string `json:"asset" ch:"asset"`
	From   string `json:"from" ch:"from_address"`
	To     string `json:"to" ch:"to_address"`

	// Liquidatee and ProfitUSD are set for liquidations only
	Liquidatee *string          `json:"liquidatee,omitempty" ch:"liquidatee"`
	ProfitUSD  *decimal.Decimal `json:"profitUsd,omitempty" ch:"profit_usd"`

	Amount    *big.Int        `json:"amount" ch:"amount"`
	AmountUSD decimal.Decimal `json:"amountUsd" ch:"amount_usd"`

	BlockNumber uint64 `json:"blockNumber" ch:"block_number"`
	Timestamp   int64  `json:"timestamp" ch:"timestamp"`
}
