package metrics

import (
	"context"

	indexerrors "github.com/lending-indexer/internal/errors"
	"github.com/lending-indexer/internal/events"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

// Snapshots owns bucket rollover for usage and financials snapshots. A
// bucket's snapshot is created on the first event that touches it, with
// carried fields seeded from the parent aggregate and period-local fields at
// zero; every later event in the bucket overwrites the carried fields with
// the aggregate's current values and adds its own contribution to the
// period-local fields. Nothing closes a bucket: the last write before the
// boundary is definitive, and a bucket with no events never gets a snapshot.
type Snapshots struct {
	store  Store
	logger *logging.Logger
}

// NewSnapshots creates the snapshot rollover component
func NewSnapshots(store Store, logger *logging.Logger) *Snapshots {
	return &Snapshots{store: store, logger: logger}
}

// UsageSnapshot resolves the usage snapshot of the bucket containing
// timestamp, creating it on first touch
func (s *Snapshots) UsageSnapshot(ctx context.Context, granularity types.Granularity, timestamp int64, protocol *models.Protocol) (*models.UsageSnapshot, error) {
	id := DailySnapshotID(timestamp)
	if granularity == types.GranularityHourly {
		id = HourlySnapshotID(timestamp)
	}

	snap, err := s.store.GetUsageSnapshot(ctx, granularity, id)
	if err != nil {
		return nil, indexerrors.NewStoreError("get usage snapshot", err)
	}
	if snap != nil {
		return snap, nil
	}

	snap = &models.UsageSnapshot{
		ID:                    id,
		Granularity:           granularity,
		CumulativeUniqueUsers: protocol.CumulativeUniqueUsers,
		TotalPoolCount:        protocol.TotalPoolCount,
	}
	if err := s.store.SaveUsageSnapshot(ctx, snap); err != nil {
		return nil, indexerrors.NewStoreError("create usage snapshot", err)
	}
	return snap, nil
}

// FinancialsSnapshot resolves the daily financials snapshot of the bucket
// containing timestamp, creating it on first touch with all cumulative
// fields carried from the protocol and all daily fields at zero
func (s *Snapshots) FinancialsSnapshot(ctx context.Context, timestamp int64, protocol *models.Protocol) (*models.FinancialsSnapshot, error) {
	id := DailySnapshotID(timestamp)

	snap, err := s.store.GetFinancialsSnapshot(ctx, id)
	if err != nil {
		return nil, indexerrors.NewStoreError("get financials snapshot", err)
	}
	if snap != nil {
		return snap, nil
	}

	snap = &models.FinancialsSnapshot{ID: id}
	carryFinancials(snap, protocol)
	if err := s.store.SaveFinancialsSnapshot(ctx, snap); err != nil {
		return nil, indexerrors.NewStoreError("create financials snapshot", err)
	}
	return snap, nil
}

// UpdateFinancials rolls one event into the daily financials snapshot:
// carried fields refresh to the protocol's current state, period-local
// fields take the event's signed contribution
func (s *Snapshots) UpdateFinancials(ctx context.Context, protocol *models.Protocol, ev *events.Event, d ProtocolDelta) error {
	snap, err := s.FinancialsSnapshot(ctx, ev.Timestamp, protocol)
	if err != nil {
		return err
	}

	carryFinancials(snap, protocol)

	if d.CollateralUSD.IsPositive() {
		snap.DailyDepositUSD = snap.DailyDepositUSD.Add(d.CollateralUSD)
	} else if d.CollateralUSD.IsNegative() {
		// withdrawals are recorded as a positive daily total
		snap.DailyWithdrawUSD = snap.DailyWithdrawUSD.Sub(d.CollateralUSD)
	}

	if d.DebtUSD.IsPositive() {
		snap.DailyBorrowUSD = snap.DailyBorrowUSD.Add(d.DebtUSD)
	} else if d.DebtUSD.IsNegative() {
		snap.DailyRepayUSD = snap.DailyRepayUSD.Sub(d.DebtUSD)
	}

	if d.LiquidateUSD.IsPositive() {
		snap.DailyLiquidateUSD = snap.DailyLiquidateUSD.Add(d.LiquidateUSD)
	}

	AccrueDailyRevenue(snap, d.TotalRevenueUSD, d.SupplySideRevenueUSD, d.RevenueSource)

	snap.BlockNumber = ev.BlockNumber
	snap.Timestamp = ev.Timestamp
	if err := s.store.SaveFinancialsSnapshot(ctx, snap); err != nil {
		return indexerrors.NewStoreError("save financials snapshot", err)
	}
	return nil
}

// carryFinancials overwrites a snapshot's carried fields with the protocol's
// current values, so the snapshot reflects state as of its last contributing
// event
func carryFinancials(snap *models.FinancialsSnapshot, p *models.Protocol) {
	snap.TotalValueLockedUSD = p.TotalValueLockedUSD
	snap.TotalDepositBalanceUSD = p.TotalDepositBalanceUSD
	snap.TotalBorrowBalanceUSD = p.TotalBorrowBalanceUSD

	snap.CumulativeDepositUSD = p.CumulativeDepositUSD
	snap.CumulativeBorrowUSD = p.CumulativeBorrowUSD
	snap.CumulativeLiquidateUSD = p.CumulativeLiquidateUSD

	snap.CumulativeSupplySideRevenueUSD = p.CumulativeSupplySideRevenueUSD
	snap.CumulativeProtocolSideRevenueUSD = p.CumulativeProtocolSideRevenueUSD
	snap.CumulativeTotalRevenueUSD = p.CumulativeTotalRevenueUSD

	snap.CumulativeStabilityFeeRevenueUSD = p.CumulativeStabilityFeeRevenueUSD
	snap.CumulativeLiquidationRevenueUSD = p.CumulativeLiquidationRevenueUSD
	snap.CumulativeStabilizationRevenueUSD = p.CumulativeStabilizationRevenueUSD
}
