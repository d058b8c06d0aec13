package metrics

import (
	"context"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lending-indexer/internal/events"
	"github.com/lending-indexer/internal/types"
)

func TestUsageActiveUserCountedOncePerBucket(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	// three events from the same address within one hour
	for i := byte(0); i < 3; i++ {
		require.NoError(t, engine.Apply(ctx, &events.Event{
			BlockNumber:        uint64(100 + i),
			Timestamp:          int64(600 * int64(i)),
			TxHash:             txHash(40 + i),
			MarketID:           testMarketID,
			Lender:             addr(0xE0),
			DeltaCollateral:    units(1),
			DeltaCollateralUSD: decimal.NewFromInt(1),
		}))
	}

	daily, err := store.GetUsageSnapshot(ctx, types.GranularityDaily, "0")
	require.NoError(t, err)
	require.NotNil(t, daily)
	assert.Equal(t, 1, daily.ActiveUsers)
	assert.Equal(t, 3, daily.DepositCount)
	assert.Equal(t, 3, daily.TransactionCount)

	hourly, err := store.GetUsageSnapshot(ctx, types.GranularityHourly, "0-0")
	require.NoError(t, err)
	require.NotNil(t, hourly)
	assert.Equal(t, 1, hourly.ActiveUsers)
	assert.Equal(t, 3, hourly.DepositCount)
}

func TestUsageHourlyBucketsDoNotCollideAcrossDays(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	// one event in hour 1 of day 0, one in hour 1 of day 1
	for i, ts := range []int64{3700, 86400 + 3700} {
		require.NoError(t, engine.Apply(ctx, &events.Event{
			BlockNumber:        uint64(200 + i),
			Timestamp:          ts,
			TxHash:             txHash(50 + byte(i)),
			MarketID:           testMarketID,
			Lender:             addr(0xE1),
			DeltaCollateral:    units(1),
			DeltaCollateralUSD: decimal.NewFromInt(1),
		}))
	}

	day0Hour1, err := store.GetUsageSnapshot(ctx, types.GranularityHourly, "0-1")
	require.NoError(t, err)
	require.NotNil(t, day0Hour1)
	assert.Equal(t, 1, day0Hour1.ActiveUsers)
	assert.Equal(t, 1, day0Hour1.DepositCount)

	day1Hour1, err := store.GetUsageSnapshot(ctx, types.GranularityHourly, "1-1")
	require.NoError(t, err)
	require.NotNil(t, day1Hour1)
	assert.Equal(t, 1, day1Hour1.ActiveUsers, "the same wall-clock hour next day is a fresh bucket")
	assert.Equal(t, 1, day1Hour1.DepositCount)
}

func TestUsageOverlappingRolesCountOnce(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	// self-liquidation: one address fills every role
	self := addr(0xE2)
	require.NoError(t, engine.Apply(ctx, &events.Event{
		BlockNumber:        300,
		Timestamp:          1000,
		TxHash:             txHash(60),
		MarketID:           testMarketID,
		Liquidator:         self,
		Liquidatee:         self,
		LiquidateAmount:    units(10),
		LiquidateUSD:       decimal.NewFromInt(10),
		ProfitUSD:          decimal.NewFromInt(1),
		NewTotalRevenueUSD: decimal.NewFromInt(1),
		RevenueSource:      types.RevenueSourceLiquidation,
	}))

	protocol, err := store.GetProtocol(ctx, testProtocolID)
	require.NoError(t, err)
	assert.Equal(t, 1, protocol.CumulativeUniqueUsers)

	daily, err := store.GetUsageSnapshot(ctx, types.GranularityDaily, "0")
	require.NoError(t, err)
	assert.Equal(t, 1, daily.ActiveUsers)
	assert.Equal(t, 1, daily.LiquidateCount)
}

func TestUsageCarriedFieldsTrackProtocol(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Apply(ctx, &events.Event{
		BlockNumber:        400,
		Timestamp:          2000,
		TxHash:             txHash(61),
		MarketID:           testMarketID,
		Lender:             addr(0xE3),
		DeltaCollateral:    units(1),
		DeltaCollateralUSD: decimal.NewFromInt(1),
	}))
	require.NoError(t, engine.Apply(ctx, &events.Event{
		BlockNumber:        401,
		Timestamp:          2600,
		TxHash:             txHash(62),
		MarketID:           "0x9759a6ac90977b93b58547b4a71c78317f391a28",
		Lender:             addr(0xE4),
		DeltaCollateral:    units(1),
		DeltaCollateralUSD: decimal.NewFromInt(1),
	}))

	daily, err := store.GetUsageSnapshot(ctx, types.GranularityDaily, "0")
	require.NoError(t, err)
	assert.Equal(t, 2, daily.CumulativeUniqueUsers)
	assert.Equal(t, 2, daily.TotalPoolCount)
	assert.Equal(t, uint64(401), daily.BlockNumber)
	assert.Equal(t, int64(2600), daily.Timestamp)
}

func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		name string
		ev   events.Event
		want types.EventType
		ok   bool
	}{
		{
			name: "liquidation wins over collateral movement",
			ev: events.Event{
				LiquidateUSD:       decimal.NewFromInt(10),
				DeltaCollateralUSD: decimal.NewFromInt(-10),
			},
			want: types.EventLiquidate,
			ok:   true,
		},
		{
			name: "collateral wins over debt",
			ev: events.Event{
				DeltaCollateralUSD: decimal.NewFromInt(5),
				DeltaDebtUSD:       decimal.NewFromInt(5),
			},
			want: types.EventDeposit,
			ok:   true,
		},
		{
			name: "negative collateral is a withdrawal",
			ev:   events.Event{DeltaCollateralUSD: decimal.NewFromInt(-5)},
			want: types.EventWithdraw,
			ok:   true,
		},
		{
			name: "positive debt is a borrow",
			ev:   events.Event{DeltaDebtUSD: decimal.NewFromInt(5)},
			want: types.EventBorrow,
			ok:   true,
		},
		{
			name: "negative debt is a repayment",
			ev:   events.Event{DeltaDebtUSD: decimal.NewFromInt(-5)},
			want: types.EventRepay,
			ok:   true,
		},
		{
			name: "nothing moved",
			ev:   events.Event{},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ev.Classify()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestZeroDeltaEventCountsNoTransaction(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Apply(ctx, &events.Event{
		BlockNumber:     500,
		Timestamp:       3000,
		TxHash:          txHash(63),
		MarketID:        testMarketID,
		Borrower:        addr(0xE5),
		DeltaCollateral: big.NewInt(0),
	}))

	daily, err := store.GetUsageSnapshot(ctx, types.GranularityDaily, "0")
	require.NoError(t, err)
	require.NotNil(t, daily)
	assert.Equal(t, 1, daily.ActiveUsers, "the address is still active")
	assert.Equal(t, 0, daily.TransactionCount, "but no transaction type applies")
}
