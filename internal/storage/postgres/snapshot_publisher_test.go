package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defi-cohort-lab/internal/domain"
)

func testSnapshot(runID string, wallets ...string) *domain.Snapshot {
	week := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := &domain.Snapshot{RunID: runID}
	for _, w := range wallets {
		snap.Cohorts = append(snap.Cohorts, &domain.WalletCohortAssignment{
			WalletAddress:        w,
			FirstProtocol:        "Uniswap V3",
			FirstTxType:          domain.TxTypeSwap,
			FirstTxHash:          "0x" + w,
			FirstInteractionDate: week,
			FirstInteractionAt:   week.Add(time.Hour),
			CohortWeek:           week,
			CohortID:             "2024-01",
			AcquisitionSource:    domain.UnknownSource,
			LabelType:            domain.UnknownSource,
		})
		snap.Activity = append(snap.Activity, &domain.ActivityPeriod{
			WalletAddress: w, WeekStart: week, CohortWeek: week, CohortID: "2024-01",
			AcquisitionSource: domain.UnknownSource, IsActive: 1, WeeklyTxCount: 1, ProtocolsUsed: 1,
		})
		snap.Wallets = append(snap.Wallets, &domain.WalletDimension{
			WalletAddress: w, CohortID: "2024-01", CohortWeek: week, VolumePercentile: 1,
			FirstTxAt: week, LastTxAt: week, ChainPersona: domain.PersonaUnknown, SmartMoneyTier: domain.TierUnknown,
		})
	}
	snap.Retention = []*domain.CohortRetentionRecord{{
		CohortID: "2024-01", AcquisitionSource: domain.UnknownSource, CohortSize: 0,
		RetentionPeriod: domain.RetentionPeriodActivation,
	}}
	return snap
}

func TestSnapshotPublisher_ReplacesTables(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	pub := NewSnapshotPublisher(pool)

	require.NoError(t, pub.Publish(ctx, testSnapshot("run-1", "0xa", "0xb", "0xc")))
	counts, err := pub.RowCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.TableWalletCohorts])
	assert.Equal(t, 3, counts[domain.TableActivityPeriods])
	assert.Equal(t, 1, counts[domain.TableCohortRetention])

	require.NoError(t, pub.Publish(ctx, testSnapshot("run-2", "0xd")))
	counts, err = pub.RowCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.TableWalletCohorts])
	assert.Equal(t, 1, counts[domain.TableWalletDimension])

	// Null retention rate stays null
	var rate *float64
	err = pool.QueryRow(ctx, "SELECT retention_rate FROM analytics.cohort_retention").Scan(&rate)
	require.NoError(t, err)
	assert.Nil(t, rate)
}

func TestSnapshotPublisher_FailedPublishKeepsPrevious(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	pub := NewSnapshotPublisher(pool)
	require.NoError(t, pub.Publish(ctx, testSnapshot("run-1", "0xa", "0xb")))

	// Duplicate wallet violates the primary key mid-publish
	bad := testSnapshot("run-2", "0xc", "0xc")
	require.Error(t, pub.Publish(ctx, bad))

	counts, err := pub.RowCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.TableWalletCohorts])

	var wallet string
	err = pool.QueryRow(ctx, "SELECT wallet_address FROM analytics.wallet_cohorts ORDER BY wallet_address LIMIT 1").Scan(&wallet)
	require.NoError(t, err)
	assert.Equal(t, "0xa", wallet)
}
