package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/loyalty/internal/clock"
	"github.com/smallbiznis/loyalty/internal/config"
	"github.com/smallbiznis/loyalty/internal/tier/domain"
	"github.com/smallbiznis/loyalty/internal/tier/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T, holder *config.TierConfigHolder) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Tier{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Repo:    repository.Provide(),
		TierCfg: holder,
	})
	return svc, db
}

func TestBootstrap_SeedsConfiguredLadder(t *testing.T) {
	holder, err := config.NewTierConfigHolder()
	require.NoError(t, err)

	svc, _ := setup(t, holder)
	require.NoError(t, svc.Bootstrap(context.Background()))

	catalog := svc.Snapshot()
	require.Equal(t, 4, catalog.Len())
	assert.Equal(t, "Member", catalog.Baseline().Name)
	assert.Equal(t, int64(0), catalog.Baseline().QualifyingThreshold)
	assert.Equal(t, "Platinum", catalog.Tiers()[3].Name)
}

func TestBootstrap_FailsOnEmptyTable(t *testing.T) {
	svc, _ := setup(t, nil)
	err := svc.Bootstrap(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogEmpty)
}

func TestReload_SwapsSnapshotAtomically(t *testing.T) {
	holder, err := config.NewTierConfigHolder()
	require.NoError(t, err)

	svc, db := setup(t, holder)
	ctx := context.Background()
	require.NoError(t, svc.Bootstrap(ctx))

	before := svc.Snapshot()
	require.Equal(t, 4, before.Len())

	// Raise the Gold threshold out of band and reload.
	require.NoError(t, db.Exec(`UPDATE tiers SET qualifying_threshold = 7500 WHERE name = 'Gold'`).Error)
	after, err := svc.Reload(ctx)
	require.NoError(t, err)

	gold := after.Evaluate(7500).Tier
	assert.Equal(t, "Gold", gold.Name)
	assert.Equal(t, "Silver", after.Evaluate(5000).Tier.Name)

	// The snapshot captured before the reload is unaffected.
	assert.Equal(t, "Gold", before.Evaluate(5000).Tier.Name)
}

func TestReload_RejectsInvalidLadder(t *testing.T) {
	holder, err := config.NewTierConfigHolder()
	require.NoError(t, err)

	svc, db := setup(t, holder)
	ctx := context.Background()
	require.NoError(t, svc.Bootstrap(ctx))

	// Removing the baseline makes the table invalid; the snapshot must
	// keep serving the last good catalog.
	require.NoError(t, db.Exec(`DELETE FROM tiers WHERE qualifying_threshold = 0`).Error)
	_, err = svc.Reload(ctx)
	assert.ErrorIs(t, err, domain.ErrNoBaselineTier)
	assert.Equal(t, 4, svc.Snapshot().Len())
}

func TestSeed_IsIdempotentAcrossBootstraps(t *testing.T) {
	holder, err := config.NewTierConfigHolder()
	require.NoError(t, err)

	svc, db := setup(t, holder)
	ctx := context.Background()
	require.NoError(t, svc.Bootstrap(ctx))

	var firstIDs []int64
	require.NoError(t, db.Raw(`SELECT id FROM tiers ORDER BY rank`).Scan(&firstIDs).Error)

	require.NoError(t, svc.Bootstrap(ctx))

	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM tiers`).Scan(&count).Error)
	assert.Equal(t, int64(4), count)

	// Rank conflict keeps the original row ids stable.
	var secondIDs []int64
	require.NoError(t, db.Raw(`SELECT id FROM tiers ORDER BY rank`).Scan(&secondIDs).Error)
	assert.Equal(t, firstIDs, secondIDs)
}
