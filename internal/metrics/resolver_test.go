package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	indexerrors "github.com/lending-indexer/internal/errors"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/storage"
	"github.com/lending-indexer/internal/types"
)

func newTestResolver(t *testing.T) (*Resolver, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	logger := logging.New(logging.LevelError, logging.FormatText)
	return NewResolver(store, logger, ProtocolDefaults{
		ID:      testProtocolID,
		Name:    "MakerDAO",
		Slug:    "makerdao",
		Network: types.ChainEthereum,
	}), store
}

func TestResolverProtocolSingleton(t *testing.T) {
	resolver, _ := newTestResolver(t)
	ctx := context.Background()

	first, err := resolver.Protocol(ctx)
	require.NoError(t, err)
	assert.Equal(t, testProtocolID, first.ID)
	assert.Equal(t, "MakerDAO", first.Name)
	assert.NotNil(t, first.MarketIDList)

	first.CumulativeUniqueUsers = 5
	require.NoError(t, resolver.store.SaveProtocol(ctx, first))

	second, err := resolver.Protocol(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, second.CumulativeUniqueUsers, "existing protocol returned unchanged")
}

func TestResolverMarketRegistersOnProtocolOnce(t *testing.T) {
	resolver, store := newTestResolver(t)
	ctx := context.Background()

	protocol, err := resolver.Protocol(ctx)
	require.NoError(t, err)

	m, err := resolver.Market(ctx, protocol, "ETH-A", MarketDefaults{
		Name:        "ETH-A",
		InputToken:  "ETH-A",
		BlockNumber: 100,
		Timestamp:   1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "ETH-A", m.Name)
	assert.Equal(t, uint64(100), m.CreatedBlockNumber)
	assert.NotNil(t, m.InputTokenBalance)

	// second resolve ignores new defaults and registers nothing
	again, err := resolver.Market(ctx, protocol, "ETH-A", MarketDefaults{Name: "other"})
	require.NoError(t, err)
	assert.Equal(t, "ETH-A", again.Name)

	stored, err := store.GetProtocol(ctx, testProtocolID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalPoolCount)
	assert.Equal(t, []string{"ETH-A"}, stored.MarketIDList)
}

func TestResolverMarketDefaultsFilled(t *testing.T) {
	resolver, _ := newTestResolver(t)
	ctx := context.Background()

	protocol, err := resolver.Protocol(ctx)
	require.NoError(t, err)

	m, err := resolver.Market(ctx, protocol, "0xsomewhere", MarketDefaults{})
	require.NoError(t, err)
	assert.Equal(t, "unknown", m.Name)
	assert.Equal(t, ZeroAddress, m.InputToken)
}

func TestResolverAccountCountsUniqueUsersOnce(t *testing.T) {
	resolver, store := newTestResolver(t)
	ctx := context.Background()

	protocol, err := resolver.Protocol(ctx)
	require.NoError(t, err)

	_, created, err := resolver.Account(ctx, protocol, "0xabc")
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = resolver.Account(ctx, protocol, "0xabc")
	require.NoError(t, err)
	assert.False(t, created)

	_, created, err = resolver.Account(ctx, protocol, "0xdef")
	require.NoError(t, err)
	assert.True(t, created)

	stored, err := store.GetProtocol(ctx, testProtocolID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CumulativeUniqueUsers)
}

func TestResolverActiveAccountPerBucket(t *testing.T) {
	resolver, _ := newTestResolver(t)
	ctx := context.Background()

	_, created, err := resolver.ActiveAccount(ctx, types.GranularityDaily, "0xabc", 43200)
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = resolver.ActiveAccount(ctx, types.GranularityDaily, "0xabc", 50000)
	require.NoError(t, err)
	assert.False(t, created, "same day, same address")

	marker, created, err := resolver.ActiveAccount(ctx, types.GranularityDaily, "0xabc", 43200+86400)
	require.NoError(t, err)
	assert.True(t, created, "next day is a fresh bucket")
	assert.Equal(t, int64(1), marker.BucketIndex)
	assert.Equal(t, "0xabc", marker.AccountID)
}

func TestResolverCollateralClassMapping(t *testing.T) {
	resolver, _ := newTestResolver(t)
	ctx := context.Background()

	protocol, err := resolver.Protocol(ctx)
	require.NoError(t, err)

	_, err = resolver.MarketForCollateral(ctx, protocol, "ETH-A")
	require.Error(t, err)
	assert.Equal(t, indexerrors.CategoryMissingReference, indexerrors.CategoryOf(err))
	assert.False(t, indexerrors.IsFatal(err))

	_, err = resolver.Market(ctx, protocol, "ETH-A", MarketDefaults{Name: "ETH-A"})
	require.NoError(t, err)
	require.NoError(t, resolver.MapCollateralClass(ctx, "ETH-A", "ETH-A"))

	// remapping is a no-op
	require.NoError(t, resolver.MapCollateralClass(ctx, "ETH-A", "other"))

	m, err := resolver.MarketForCollateral(ctx, protocol, "ETH-A")
	require.NoError(t, err)
	assert.Equal(t, "ETH-A", m.ID)
}
