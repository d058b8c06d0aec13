package metrics

import (
	"context"

	indexerrors "github.com/lending-indexer/internal/errors"
	"github.com/lending-indexer/internal/events"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

// UsageTracker deduplicates accounts and per-bucket active accounts, and
// counts transactions by type on the daily and hourly usage snapshots
type UsageTracker struct {
	store     Store
	resolver  *Resolver
	snapshots *Snapshots
	logger    *logging.Logger
}

// NewUsageTracker creates the usage/activity tracking component
func NewUsageTracker(store Store, resolver *Resolver, snapshots *Snapshots, logger *logging.Logger) *UsageTracker {
	return &UsageTracker{store: store, resolver: resolver, snapshots: snapshots, logger: logger}
}

// Update folds one event into the usage metrics. For every distinct
// participating address: get-or-create its Account (first event ever bumps
// the protocol's unique-user count, inside the resolver) and its daily and
// hourly ActiveAccount markers (first event in the bucket bumps that
// bucket's active-user count). The event then counts once, under exactly one
// transaction type, on both snapshots.
func (t *UsageTracker) Update(ctx context.Context, protocol *models.Protocol, ev *events.Event) error {
	daily, err := t.snapshots.UsageSnapshot(ctx, types.GranularityDaily, ev.Timestamp, protocol)
	if err != nil {
		return err
	}
	hourly, err := t.snapshots.UsageSnapshot(ctx, types.GranularityHourly, ev.Timestamp, protocol)
	if err != nil {
		return err
	}

	for _, address := range ev.Addresses() {
		if _, _, err := t.resolver.Account(ctx, protocol, address); err != nil {
			return err
		}

		_, createdDaily, err := t.resolver.ActiveAccount(ctx, types.GranularityDaily, address, ev.Timestamp)
		if err != nil {
			return err
		}
		if createdDaily {
			daily.ActiveUsers++
		}

		_, createdHourly, err := t.resolver.ActiveAccount(ctx, types.GranularityHourly, address, ev.Timestamp)
		if err != nil {
			return err
		}
		if createdHourly {
			hourly.ActiveUsers++
		}
	}

	if kind, ok := ev.Classify(); ok {
		countTransaction(daily, kind)
		countTransaction(hourly, kind)
	}

	// carried fields reflect the protocol as of this event
	daily.CumulativeUniqueUsers = protocol.CumulativeUniqueUsers
	daily.TotalPoolCount = protocol.TotalPoolCount
	hourly.CumulativeUniqueUsers = protocol.CumulativeUniqueUsers
	hourly.TotalPoolCount = protocol.TotalPoolCount

	daily.BlockNumber = ev.BlockNumber
	daily.Timestamp = ev.Timestamp
	hourly.BlockNumber = ev.BlockNumber
	hourly.Timestamp = ev.Timestamp

	if err := t.store.SaveUsageSnapshot(ctx, daily); err != nil {
		return indexerrors.NewStoreError("save daily usage snapshot", err)
	}
	if err := t.store.SaveUsageSnapshot(ctx, hourly); err != nil {
		return indexerrors.NewStoreError("save hourly usage snapshot", err)
	}
	return nil
}

func countTransaction(snap *models.UsageSnapshot, kind types.EventType) {
	switch kind {
	case types.EventDeposit:
		snap.DepositCount++
	case types.EventWithdraw:
		snap.WithdrawCount++
	case types.EventBorrow:
		snap.BorrowCount++
	case types.EventRepay:
		snap.RepayCount++
	case types.EventLiquidate:
		snap.LiquidateCount++
	default:
		return
	}
	snap.TransactionCount++
}
