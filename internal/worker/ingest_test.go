package worker

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lending-indexer/internal/events"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/metrics"
	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/storage"
	"github.com/lending-indexer/internal/types"
)

const testProtocolID = "0x35d1b3f3d7966a1dfe207aa4514c12a259a0492b"

type testPipeline struct {
	worker *IngestWorker
	store  *storage.MemoryStore
	dedupe *storage.EventDedupe
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := storage.NewMemoryStore()
	logger := logging.New(logging.LevelError, logging.FormatText)
	engine := metrics.NewEngine(store, store, logger, metrics.EngineConfig{
		Protocol: metrics.ProtocolDefaults{
			ID:      testProtocolID,
			Name:    "MakerDAO",
			Slug:    "makerdao",
			Network: types.ChainEthereum,
		},
		DebtAsset: "0x6b175474e89094c44da98b954eedeac495271d0f",
	})
	enricher := NewEnricher(store, engine.Resolver(), nil, nil, logger)
	dedupe := storage.NewEventDedupe(storage.NewRedisCacheFromClient(client), time.Hour)

	return &testPipeline{
		worker: NewIngestWorker(engine, enricher, dedupe, logger),
		store:  store,
		dedupe: dedupe,
	}
}

func wad(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func borrowEvent(logIndex uint) *events.Event {
	borrower := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	return &events.Event{
		BlockNumber:     17000000,
		Timestamp:       43200,
		TxHash:          common.HexToHash("0xaaaa"),
		LogIndex:        logIndex,
		CollateralClass: "ETH-A",
		Borrower:        &borrower,
		DeltaDebt:       wad(1000),
	}
}

func TestHandleAppliesEventOnce(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	ev := borrowEvent(0)
	require.NoError(t, p.worker.Handle(ctx, ev))

	// a poller restart re-delivers the same log
	require.NoError(t, p.worker.Handle(ctx, borrowEvent(0)))

	market, err := p.store.GetMarket(ctx, "ETH-A")
	require.NoError(t, err)
	require.NotNil(t, market)
	assert.True(t, market.TotalBorrowBalanceUSD.Equal(decimal.NewFromInt(1000)),
		"duplicate delivery must not double count")
	assert.True(t, market.CumulativeBorrowUSD.Equal(decimal.NewFromInt(1000)))

	daily, err := p.store.GetUsageSnapshot(ctx, types.GranularityDaily, "0")
	require.NoError(t, err)
	require.NotNil(t, daily)
	assert.Equal(t, 1, daily.BorrowCount)

	require.Len(t, p.store.LedgerEntries(), 1)

	seen, err := p.dedupe.IsProcessed(ctx, ev.ID())
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestHandleEnrichesDebtToUSD(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, p.worker.Handle(ctx, borrowEvent(1)))

	protocol, err := p.store.GetProtocol(ctx, testProtocolID)
	require.NoError(t, err)
	require.NotNil(t, protocol)
	assert.True(t, protocol.TotalBorrowBalanceUSD.Equal(decimal.NewFromInt(1000)),
		"debt is the USD-pegged stablecoin: 1000e18 raw is $1000")
}

func TestHandleAccrualConvertsRateToRevenue(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, p.worker.Handle(ctx, borrowEvent(2)))

	accrual := &events.Event{
		BlockNumber:     17000001,
		Timestamp:       43800,
		TxHash:          common.HexToHash("0xbbbb"),
		LogIndex:        0,
		CollateralClass: "ETH-A",
		RevenueSource:   types.RevenueSourceStabilityFee,
		AccruedRate:     decimal.RequireFromString("0.001"),
	}
	require.NoError(t, p.worker.Handle(ctx, accrual))

	protocol, err := p.store.GetProtocol(ctx, testProtocolID)
	require.NoError(t, err)
	assert.True(t, protocol.CumulativeTotalRevenueUSD.Equal(decimal.NewFromInt(1)),
		"0.001 on $1000 outstanding debt is $1 of revenue")
	assert.True(t, protocol.CumulativeProtocolSideRevenueUSD.Equal(decimal.NewFromInt(1)),
		"stability fees accrue entirely to the protocol side")
	assert.True(t, protocol.CumulativeStabilityFeeRevenueUSD.Equal(decimal.NewFromInt(1)))
	assert.True(t, protocol.CumulativeSupplySideRevenueUSD.IsZero())
}

func TestHandleAttributesLiquidationPenaltyRevenue(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	deposit := &events.Event{
		BlockNumber:     17000000,
		Timestamp:       43200,
		TxHash:          common.HexToHash("0xcccc"),
		LogIndex:        0,
		CollateralClass: "ETH-A",
		Lender:          addrOf("0x00000000000000000000000000000000000000c1"),
		DeltaCollateral: wad(5),
	}
	require.NoError(t, p.worker.Handle(ctx, deposit))

	// oracle price and auction penalty arrive out of band
	token, err := p.store.GetToken(ctx, "ETH-A")
	require.NoError(t, err)
	require.NotNil(t, token)
	price := decimal.NewFromInt(2000)
	token.LastPriceUSD = &price
	require.NoError(t, p.store.SaveToken(ctx, token))

	market, err := p.store.GetMarket(ctx, "ETH-A")
	require.NoError(t, err)
	require.NotNil(t, market)
	market.RiskParameters.LiquidationPenalty = decimal.RequireFromString("0.13")
	require.NoError(t, p.store.SaveMarket(ctx, market))

	seize := &events.Event{
		BlockNumber:     17000002,
		Timestamp:       44400,
		TxHash:          common.HexToHash("0xdddd"),
		LogIndex:        0,
		CollateralClass: "ETH-A",
		Liquidator:      addrOf("0x00000000000000000000000000000000000000d1"),
		Liquidatee:      addrOf("0x00000000000000000000000000000000000000c1"),
		DeltaCollateral: new(big.Int).Neg(wad(1)),
		LiquidateAmount: wad(1),
	}
	require.NoError(t, p.worker.Handle(ctx, seize))

	protocol, err := p.store.GetProtocol(ctx, testProtocolID)
	require.NoError(t, err)
	assert.True(t, protocol.CumulativeLiquidationRevenueUSD.Equal(decimal.NewFromInt(260)),
		"13 percent penalty on $2000 of seized collateral")
	assert.True(t, protocol.CumulativeTotalRevenueUSD.Equal(decimal.NewFromInt(260)))
	assert.True(t, protocol.CumulativeProtocolSideRevenueUSD.Equal(decimal.NewFromInt(260)),
		"penalty income carries no supply side share")
	assert.True(t, protocol.CumulativeSupplySideRevenueUSD.IsZero())

	market, err = p.store.GetMarket(ctx, "ETH-A")
	require.NoError(t, err)
	assert.True(t, market.CumulativeLiquidateUSD.Equal(decimal.NewFromInt(2000)))

	daily, err := p.store.GetUsageSnapshot(ctx, types.GranularityDaily, "0")
	require.NoError(t, err)
	require.NotNil(t, daily)
	assert.Equal(t, 1, daily.LiquidateCount)
}

func addrOf(hex string) *common.Address {
	a := common.HexToAddress(hex)
	return &a
}

// failingStore rejects protocol writes so enrichment cannot complete
type failingStore struct {
	*storage.MemoryStore
}

func (s *failingStore) SaveProtocol(_ context.Context, _ *models.Protocol) error {
	return errors.New("connection reset")
}

func TestHandleReleasesMarkWhenEnrichmentFails(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	logger := logging.New(logging.LevelError, logging.FormatText)
	broken := &failingStore{MemoryStore: storage.NewMemoryStore()}
	resolver := metrics.NewResolver(broken, logger, metrics.ProtocolDefaults{ID: testProtocolID})
	p.worker.enricher = NewEnricher(broken, resolver, nil, nil, logger)

	ev := borrowEvent(3)
	require.Error(t, p.worker.Handle(ctx, ev))

	seen, err := p.dedupe.IsProcessed(ctx, ev.ID())
	require.NoError(t, err)
	assert.False(t, seen, "the mark is released so the next poll can retry")
}
