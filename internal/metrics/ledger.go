package metrics

import (
	"context"
	"math/big"
	"strings"

	indexerrors "github.com/lending-indexer/internal/errors"
	"github.com/lending-indexer/internal/events"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

// Ledger writes the immutable per-event transaction records. Record ids are
// deterministic (event type + tx hash + log index) and an existing id is
// never written again, so replayed events produce no duplicate rows.
type Ledger struct {
	store     LedgerStore
	logger    *logging.Logger
	debtAsset string
}

// NewLedger creates the ledger writer. debtAsset is the token minted when
// debt is drawn (the asset recorded on borrow and repay rows).
func NewLedger(store LedgerStore, logger *logging.Logger, debtAsset string) *Ledger {
	return &Ledger{store: store, logger: logger, debtAsset: debtAsset}
}

// Record writes the ledger rows one event produces. An event can move both
// collateral and debt, so it may produce up to one row per movement.
// A movement whose required counterparty address is absent is an
// invariant-violating input: the row is skipped with a warning and the
// event's remaining rows still apply.
func (l *Ledger) Record(ctx context.Context, market *models.Market, ev *events.Event) error {
	if ev.DeltaCollateral != nil && ev.DeltaCollateral.Sign() > 0 {
		if ev.Lender == nil {
			l.logger.WithField("eventId", ev.ID()).Warn("deposit with no lender address, skipping ledger row")
		} else {
			lender := strings.ToLower(ev.Lender.Hex())
			if err := l.insert(ctx, &models.LedgerEntry{
				ID:          ev.LedgerID(types.EventDeposit),
				EventType:   types.EventDeposit,
				Hash:        strings.ToLower(ev.TxHash.Hex()),
				LogIndex:    ev.LogIndex,
				Market:      market.ID,
				Asset:       market.InputToken,
				From:        lender,
				To:          market.ID,
				Amount:      ev.DeltaCollateral,
				AmountUSD:   ev.DeltaCollateralUSD,
				BlockNumber: ev.BlockNumber,
				Timestamp:   ev.Timestamp,
			}); err != nil {
				return err
			}
		}
	} else if ev.DeltaCollateral != nil && ev.DeltaCollateral.Sign() < 0 {
		if ev.Lender == nil {
			l.logger.WithField("eventId", ev.ID()).Warn("withdraw with no lender address, skipping ledger row")
		} else {
			lender := strings.ToLower(ev.Lender.Hex())
			if err := l.insert(ctx, &models.LedgerEntry{
				ID:          ev.LedgerID(types.EventWithdraw),
				EventType:   types.EventWithdraw,
				Hash:        strings.ToLower(ev.TxHash.Hex()),
				LogIndex:    ev.LogIndex,
				Market:      market.ID,
				Asset:       market.InputToken,
				From:        market.ID,
				To:          lender,
				Amount:      new(big.Int).Neg(ev.DeltaCollateral),
				AmountUSD:   ev.DeltaCollateralUSD.Neg(),
				BlockNumber: ev.BlockNumber,
				Timestamp:   ev.Timestamp,
			}); err != nil {
				return err
			}
		}
	}

	if ev.DeltaDebt != nil && ev.DeltaDebt.Sign() > 0 {
		if ev.Borrower == nil {
			l.logger.WithField("eventId", ev.ID()).Warn("borrow with no borrower address, skipping ledger row")
		} else {
			borrower := strings.ToLower(ev.Borrower.Hex())
			if err := l.insert(ctx, &models.LedgerEntry{
				ID:          ev.LedgerID(types.EventBorrow),
				EventType:   types.EventBorrow,
				Hash:        strings.ToLower(ev.TxHash.Hex()),
				LogIndex:    ev.LogIndex,
				Market:      market.ID,
				Asset:       l.debtAsset,
				From:        market.ID,
				To:          borrower,
				Amount:      ev.DeltaDebt,
				AmountUSD:   ev.DeltaDebtUSD,
				BlockNumber: ev.BlockNumber,
				Timestamp:   ev.Timestamp,
			}); err != nil {
				return err
			}
		}
	} else if ev.DeltaDebt != nil && ev.DeltaDebt.Sign() < 0 {
		if ev.Borrower == nil {
			l.logger.WithField("eventId", ev.ID()).Warn("repay with no borrower address, skipping ledger row")
		} else {
			borrower := strings.ToLower(ev.Borrower.Hex())
			if err := l.insert(ctx, &models.LedgerEntry{
				ID:          ev.LedgerID(types.EventRepay),
				EventType:   types.EventRepay,
				Hash:        strings.ToLower(ev.TxHash.Hex()),
				LogIndex:    ev.LogIndex,
				Market:      market.ID,
				Asset:       l.debtAsset,
				From:        borrower,
				To:          market.ID,
				Amount:      new(big.Int).Neg(ev.DeltaDebt),
				AmountUSD:   ev.DeltaDebtUSD.Neg(),
				BlockNumber: ev.BlockNumber,
				Timestamp:   ev.Timestamp,
			}); err != nil {
				return err
			}
		}
	}

	if ev.LiquidateUSD.IsPositive() {
		if ev.Liquidator == nil || ev.Liquidatee == nil {
			l.logger.WithField("eventId", ev.ID()).Warn("liquidation without liquidator and liquidatee, skipping ledger row")
			return nil
		}
		liquidator := strings.ToLower(ev.Liquidator.Hex())
		liquidatee := strings.ToLower(ev.Liquidatee.Hex())
		profit := ev.ProfitUSD
		entry := &models.LedgerEntry{
			ID:          ev.LedgerID(types.EventLiquidate),
			EventType:   types.EventLiquidate,
			Hash:        strings.ToLower(ev.TxHash.Hex()),
			LogIndex:    ev.LogIndex,
			Market:      market.ID,
			Asset:       market.InputToken,
			From:        liquidator,
			To:          market.ID,
			Liquidatee:  &liquidatee,
			ProfitUSD:   &profit,
			Amount:      ev.LiquidateAmount,
			AmountUSD:   ev.LiquidateUSD,
			BlockNumber: ev.BlockNumber,
			Timestamp:   ev.Timestamp,
		}
		if entry.Amount == nil {
			entry.Amount = new(big.Int)
		}
		if err := l.insert(ctx, entry); err != nil {
			return err
		}
	}

	return nil
}

func (l *Ledger) insert(ctx context.Context, entry *models.LedgerEntry) error {
	exists, err := l.store.HasLedgerEntry(ctx, entry.ID)
	if err != nil {
		return indexerrors.NewStoreError("check ledger entry", err)
	}
	if exists {
		return nil
	}
	if err := l.store.InsertLedgerEntry(ctx, entry); err != nil {
		return indexerrors.NewStoreError("insert ledger entry", err)
	}
	return nil
}
