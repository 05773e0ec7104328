package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defi-cohort-lab/internal/domain"
)

func TestSourceStore_TransactionsRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSourceStore(pool)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	n, err := store.UpsertTransactions(ctx, []*domain.RawTransaction{
		{
			TxHash:         "0xabc",
			BlockNumber:    19000000,
			BlockTimestamp: ts,
			FromAddress:    "0xa",
			ToAddress:      "0xrouter",
			ValueWei:       "1500000000000000000000000", // exceeds int64
			GasUsed:        21000,
			GasPriceWei:    "30000000000",
			MethodID:       "0x414bf389",
			ProtocolName:   "Uniswap V3",
			Chain:          "ethereum",
		},
		{
			TxHash:          "0xdef",
			BlockNumber:     19000001,
			BlockTimestamp:  ts.Add(time.Minute),
			FromAddress:     "0xb",
			ContractAddress: ptr("0xpool"),
			IsError:         true,
			ProtocolName:    "Aave V3",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Upsert replaces on tx_hash
	_, err = store.UpsertTransactions(ctx, []*domain.RawTransaction{
		{TxHash: "0xdef", BlockNumber: 19000001, BlockTimestamp: ts.Add(time.Minute), FromAddress: "0xc", ProtocolName: "Aave V3", Chain: "ethereum"},
	})
	require.NoError(t, err)

	rows, err := store.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "0xabc", rows[0].TxHash)
	assert.Equal(t, "1500000000000000000000000", rows[0].ValueWei)
	assert.Equal(t, "30000000000", rows[0].GasPriceWei)
	assert.True(t, rows[0].BlockTimestamp.Equal(ts))
	assert.Nil(t, rows[0].ContractAddress)

	assert.Equal(t, "0xc", rows[1].FromAddress)
	assert.Equal(t, "0", rows[1].ValueWei)
	assert.False(t, rows[1].IsError)
}

func TestSourceStore_ReferenceTables(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSourceStore(pool)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.UpsertTokenPrices(ctx, []*domain.RawTokenPrice{
		{TokenID: "ethereum", TokenSymbol: "ETH", Date: day, PriceUSD: ptr(2300.5)},
		{TokenID: "ethereum", TokenSymbol: "ETH", Date: day.AddDate(0, 0, 1), PriceUSD: nil},
	})
	require.NoError(t, err)

	_, err = store.UpsertProtocolTVL(ctx, []*domain.RawProtocolTVL{
		{ProtocolSlug: "aave-v3", ProtocolName: "Aave V3", Chain: "ethereum", Date: day, TVLUSD: ptr(1e9)},
	})
	require.NoError(t, err)

	_, err = store.UpsertWalletLabels(ctx, []*domain.WalletLabel{
		{WalletAddress: "0xa", Label: "airdrop", LabelType: "campaign", FirstActivityDate: &day, TotalTxs: 4},
	})
	require.NoError(t, err)

	_, err = store.UpsertCrossChainActivity(ctx, []*domain.CrossChainActivity{
		{WalletAddress: "0xa", DistinctChainsUsed: 3, TotalBridgingVolumeUSD: 120.5},
	})
	require.NoError(t, err)

	_, err = store.UpsertWalletEnrichment(ctx, []*domain.WalletEnrichment{
		{WalletAddress: "0xa", HistoricalWinRate: ptr(0.55)},
	})
	require.NoError(t, err)

	prices, err := store.TokenPrices(ctx)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.InDelta(t, 2300.5, *prices[0].PriceUSD, 0.0001)
	assert.Nil(t, prices[1].PriceUSD)
	assert.True(t, prices[0].Date.Equal(day))

	tvl, err := store.ProtocolTVL(ctx)
	require.NoError(t, err)
	require.Len(t, tvl, 1)
	assert.Equal(t, "Aave V3", tvl[0].ProtocolName)

	labels, err := store.WalletLabels(ctx)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, int64(4), labels[0].TotalTxs)
	require.NotNil(t, labels[0].FirstActivityDate)

	cc, err := store.CrossChainActivity(ctx)
	require.NoError(t, err)
	require.Len(t, cc, 1)
	assert.Equal(t, 3, cc[0].DistinctChainsUsed)
	assert.Nil(t, cc[0].LastBridgeDate)

	en, err := store.WalletEnrichment(ctx)
	require.NoError(t, err)
	require.Len(t, en, 1)
	assert.Nil(t, en[0].RealizedProfitUSD)
}

func TestSourceStore_EmptyUpsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	n, err := NewSourceStore(pool).UpsertTransactions(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
