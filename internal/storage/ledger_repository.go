package storage

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

// LedgerRepository handles ledger entry persistence in ClickHouse. Entries are
// append-only; idempotence relies on the caller checking HasEntry before
// inserting, backed by the deterministic entry id.
type LedgerRepository struct {
	db *ClickHouseDB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *ClickHouseDB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// HasLedgerEntry reports whether an entry with this id already exists
func (r *LedgerRepository) HasLedgerEntry(ctx context.Context, id string) (bool, error) {
	query := `SELECT count() FROM ledger_entries WHERE id = ?`

	var count uint64
	if err := r.db.Conn().QueryRow(ctx, query, id).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check ledger entry: %w", err)
	}
	return count > 0, nil
}

// InsertLedgerEntry inserts a single ledger entry
func (r *LedgerRepository) InsertLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	liquidatee := ""
	if entry.Liquidatee != nil {
		liquidatee = strings.ToLower(*entry.Liquidatee)
	}
	profitUSD := decimal.Zero
	if entry.ProfitUSD != nil {
		profitUSD = *entry.ProfitUSD
	}
	amount := "0"
	if entry.Amount != nil {
		amount = entry.Amount.String()
	}

	query := `
		INSERT INTO ledger_entries (
			id, event_type, hash, log_index, market, asset, from_address, to_address,
			liquidatee, profit_usd, amount, amount_usd, block_number, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.db.Conn().Exec(ctx, query,
		entry.ID,
		string(entry.EventType),
		strings.ToLower(entry.Hash),
		uint32(entry.LogIndex),
		strings.ToLower(entry.Market),
		strings.ToLower(entry.Asset),
		strings.ToLower(entry.From),
		strings.ToLower(entry.To),
		liquidatee,
		profitUSD,
		amount,
		entry.AmountUSD,
		entry.BlockNumber,
		time.Unix(entry.Timestamp, 0).UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// BatchInsertLedgerEntries inserts multiple ledger entries in a batch.
// Used by replay tooling; the event pipeline inserts one at a time.
func (r *LedgerRepository) BatchInsertLedgerEntries(ctx context.Context, entries []*models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO ledger_entries (
			id, event_type, hash, log_index, market, asset, from_address, to_address,
			liquidatee, profit_usd, amount, amount_usd, block_number, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, entry := range entries {
		liquidatee := ""
		if entry.Liquidatee != nil {
			liquidatee = strings.ToLower(*entry.Liquidatee)
		}
		profitUSD := decimal.Zero
		if entry.ProfitUSD != nil {
			profitUSD = *entry.ProfitUSD
		}
		amount := "0"
		if entry.Amount != nil {
			amount = entry.Amount.String()
		}

		err = batch.Append(
			entry.ID,
			string(entry.EventType),
			strings.ToLower(entry.Hash),
			uint32(entry.LogIndex),
			strings.ToLower(entry.Market),
			strings.ToLower(entry.Asset),
			strings.ToLower(entry.From),
			strings.ToLower(entry.To),
			liquidatee,
			profitUSD,
			amount,
			entry.AmountUSD,
			entry.BlockNumber,
			time.Unix(entry.Timestamp, 0).UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to append ledger entry %s: %w", entry.ID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// GetLedgerEntriesByMarket returns ledger entries for a market ordered by
// block and log index, newest first
func (r *LedgerRepository) GetLedgerEntriesByMarket(ctx context.Context, marketID string, limit int) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, event_type, hash, log_index, market, asset, from_address, to_address,
		       liquidatee, profit_usd, amount, amount_usd, block_number, timestamp
		FROM ledger_entries
		WHERE market = ?
		ORDER BY block_number DESC, log_index DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, strings.ToLower(marketID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// GetLedgerEntriesByAccount returns ledger entries touching an address as
// sender, receiver or liquidatee, newest first
func (r *LedgerRepository) GetLedgerEntriesByAccount(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	addr := strings.ToLower(address)
	query := `
		SELECT id, event_type, hash, log_index, market, asset, from_address, to_address,
		       liquidatee, profit_usd, amount, amount_usd, block_number, timestamp
		FROM ledger_entries
		WHERE from_address = ? OR to_address = ? OR liquidatee = ?
		ORDER BY block_number DESC, log_index DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, addr, addr, addr, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

type ledgerRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanLedgerEntries(rows ledgerRows) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	for rows.Next() {
		var (
			entry      models.LedgerEntry
			eventType  string
			logIndex   uint32
			liquidatee string
			profitUSD  decimal.Decimal
			amount     string
			ts         time.Time
		)
		err := rows.Scan(
			&entry.ID, &eventType, &entry.Hash, &logIndex,
			&entry.Market, &entry.Asset, &entry.From, &entry.To,
			&liquidatee, &profitUSD, &amount, &entry.AmountUSD,
			&entry.BlockNumber, &ts,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entry.EventType = types.EventType(eventType)
		entry.LogIndex = uint(logIndex)
		entry.Timestamp = ts.Unix()
		if liquidatee != "" {
			entry.Liquidatee = &liquidatee
			p := profitUSD
			entry.ProfitUSD = &p
		}
		entry.Amount, _ = new(big.Int).SetString(amount, 10)
		if entry.Amount == nil {
			entry.Amount = new(big.Int)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}
	return entries, nil
}
