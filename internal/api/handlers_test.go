package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/storage"
	"github.com/lending-indexer/internal/types"
)

const testProtocolID = "0x35d1b3f3d7966a1dfe207aa4514c12a259a0492b"

// fakeLedger serves canned ledger entries and records the requested limit
type fakeLedger struct {
	entries   []*models.LedgerEntry
	lastLimit int
}

func (f *fakeLedger) GetLedgerEntriesByMarket(_ context.Context, _ string, limit int) ([]*models.LedgerEntry, error) {
	f.lastLimit = limit
	return f.entries, nil
}

func (f *fakeLedger) GetLedgerEntriesByAccount(_ context.Context, _ string, limit int) ([]*models.LedgerEntry, error) {
	f.lastLimit = limit
	return f.entries, nil
}

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore, *fakeLedger) {
	t.Helper()
	store := storage.NewMemoryStore()
	ledger := &fakeLedger{}
	logger := logging.New(logging.LevelError, logging.FormatText)
	server := NewServer(DefaultServerConfig("127.0.0.1", "0"), store, ledger, testProtocolID, logger)
	return server, store, ledger
}

func doRequest(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doRequest(t, server, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGetProtocol(t *testing.T) {
	server, store, _ := newTestServer(t)

	t.Run("not indexed yet", func(t *testing.T) {
		rec := doRequest(t, server, "/api/protocol")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	require.NoError(t, store.SaveProtocol(context.Background(), &models.Protocol{
		ID:                    testProtocolID,
		Name:                  "MakerDAO",
		CumulativeUniqueUsers: 12,
		TotalValueLockedUSD:   decimal.NewFromInt(5000),
		MarketIDList:          []string{},
	}))

	rec := doRequest(t, server, "/api/protocol")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Protocol
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "MakerDAO", got.Name)
	assert.Equal(t, 12, got.CumulativeUniqueUsers)
	assert.True(t, got.TotalValueLockedUSD.Equal(decimal.NewFromInt(5000)))
}

func TestListMarkets(t *testing.T) {
	server, store, _ := newTestServer(t)
	ctx := context.Background()

	t.Run("empty before indexing", func(t *testing.T) {
		rec := doRequest(t, server, "/api/markets")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	require.NoError(t, store.SaveProtocol(ctx, &models.Protocol{
		ID:           testProtocolID,
		MarketIDList: []string{"ETH-A", "WBTC-A"},
	}))
	require.NoError(t, store.SaveMarket(ctx, &models.Market{ID: "ETH-A", Name: "ETH-A"}))
	require.NoError(t, store.SaveMarket(ctx, &models.Market{ID: "WBTC-A", Name: "WBTC-A"}))

	rec := doRequest(t, server, "/api/markets")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []*models.Market
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "ETH-A", got[0].ID)
	assert.Equal(t, "WBTC-A", got[1].ID)
}

func TestGetMarket(t *testing.T) {
	server, store, _ := newTestServer(t)

	rec := doRequest(t, server, "/api/markets/ETH-A")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errBody ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, ErrCodeNotFound, errBody.Error.Code)

	require.NoError(t, store.SaveMarket(context.Background(), &models.Market{
		ID:                     "ETH-A",
		Name:                   "ETH-A",
		TotalDepositBalanceUSD: decimal.NewFromInt(250),
	}))

	rec = doRequest(t, server, "/api/markets/ETH-A")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Market
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.TotalDepositBalanceUSD.Equal(decimal.NewFromInt(250)))
}

func TestMarketLedgerLimits(t *testing.T) {
	server, _, ledger := newTestServer(t)

	rec := doRequest(t, server, "/api/markets/ETH-A/ledger")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultLedgerLimit, ledger.lastLimit)
	assert.JSONEq(t, "[]", rec.Body.String(), "no entries serializes as an empty array")

	doRequest(t, server, "/api/markets/ETH-A/ledger?limit=7")
	assert.Equal(t, 7, ledger.lastLimit)

	doRequest(t, server, "/api/markets/ETH-A/ledger?limit=99999")
	assert.Equal(t, maxLedgerLimit, ledger.lastLimit, "limit is capped")

	doRequest(t, server, "/api/markets/ETH-A/ledger?limit=-1")
	assert.Equal(t, defaultLedgerLimit, ledger.lastLimit, "invalid limits fall back to the default")
}

func TestAccountLedger(t *testing.T) {
	server, _, ledger := newTestServer(t)

	amount := decimal.NewFromInt(100)
	ledger.entries = []*models.LedgerEntry{
		{ID: "DEPOSIT-0xaaaa-0", EventType: types.EventDeposit, AmountUSD: amount},
	}

	rec := doRequest(t, server, "/api/accounts/0xb1/ledger")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []*models.LedgerEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, types.EventDeposit, got[0].EventType)
	assert.True(t, got[0].AmountUSD.Equal(amount))
}

func TestGetFinancialsSnapshot(t *testing.T) {
	server, store, _ := newTestServer(t)

	rec := doRequest(t, server, "/api/snapshots/financials/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, "/api/snapshots/financials/19723")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, store.SaveFinancialsSnapshot(context.Background(), &models.FinancialsSnapshot{
		ID:              "19723",
		DailyDepositUSD: decimal.NewFromInt(321),
	}))

	rec = doRequest(t, server, "/api/snapshots/financials/19723")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.FinancialsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.DailyDepositUSD.Equal(decimal.NewFromInt(321)))
}

func TestGetUsageSnapshot(t *testing.T) {
	server, store, _ := newTestServer(t)
	ctx := context.Background()

	rec := doRequest(t, server, "/api/snapshots/usage/weekly/19723")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "only daily and hourly are valid")

	require.NoError(t, store.SaveUsageSnapshot(ctx, &models.UsageSnapshot{
		ID:          "19723",
		Granularity: types.GranularityDaily,
		ActiveUsers: 4,
	}))
	require.NoError(t, store.SaveUsageSnapshot(ctx, &models.UsageSnapshot{
		ID:          "19723-11",
		Granularity: types.GranularityHourly,
		ActiveUsers: 2,
	}))

	rec = doRequest(t, server, "/api/snapshots/usage/daily/19723")
	require.Equal(t, http.StatusOK, rec.Code)
	var daily models.UsageSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &daily))
	assert.Equal(t, 4, daily.ActiveUsers)

	rec = doRequest(t, server, "/api/snapshots/usage/hourly/19723-11")
	require.Equal(t, http.StatusOK, rec.Code)
	var hourly models.UsageSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hourly))
	assert.Equal(t, 2, hourly.ActiveUsers)

	rec = doRequest(t, server, "/api/snapshots/usage/hourly/19723")
	assert.Equal(t, http.StatusNotFound, rec.Code, "bucket ids are scoped by granularity")
}
