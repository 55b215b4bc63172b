package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/loyalty/internal/ledger/domain"
	"github.com/smallbiznis/loyalty/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.PointsTransaction{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return db, node
}

func entry(node *snowflake.Node, userID snowflake.ID, typ domain.TransactionType, amount int64, at time.Time) *domain.PointsTransaction {
	return &domain.PointsTransaction{
		ID:        node.Generate(),
		UserID:    userID,
		Type:      typ,
		Amount:    amount,
		CreatedAt: at,
	}
}

func TestRepository_InsertAndFindByReference(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()
	userID := node.Generate()

	tx := &domain.PointsTransaction{
		ID:           node.Generate(),
		UserID:       userID,
		Type:         domain.TypeEarn,
		Amount:       500,
		BalanceAfter: 500,
		ReferenceID:  "booking-42",
		Reason:       "stay",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(ctx, db, tx))

	found, err := repo.FindByReference(ctx, db, userID, "booking-42", domain.TypeEarn)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, tx.ID, found.ID)
	assert.Equal(t, int64(500), found.Amount)

	// Same reference under a different type is a distinct event.
	miss, err := repo.FindByReference(ctx, db, userID, "booking-42", domain.TypeRedeem)
	require.NoError(t, err)
	assert.Nil(t, miss)

	miss, err = repo.FindByReference(ctx, db, userID, "booking-43", domain.TypeEarn)
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestRepository_ListFiltersAndPaginates(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()
	userID := node.Generate()
	otherID := node.Generate()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, db, entry(node, userID, domain.TypeEarn, 100, base)))
	require.NoError(t, repo.Insert(ctx, db, entry(node, userID, domain.TypeBonus, 50, base.Add(time.Minute))))
	require.NoError(t, repo.Insert(ctx, db, entry(node, userID, domain.TypeRedeem, -30, base.Add(2*time.Minute))))
	require.NoError(t, repo.Insert(ctx, db, entry(node, userID, domain.TypeEarn, 25, base.Add(3*time.Minute))))
	require.NoError(t, repo.Insert(ctx, db, entry(node, otherID, domain.TypeEarn, 999, base)))

	t.Run("scoped to user, newest first", func(t *testing.T) {
		items, err := repo.List(ctx, db, userID, domain.ListFilter{}, pagination.Pagination{PageSize: 10})
		require.NoError(t, err)
		require.Len(t, items, 4)
		assert.Equal(t, int64(25), items[0].Amount)
		assert.Equal(t, int64(100), items[3].Amount)
	})

	t.Run("filter by type", func(t *testing.T) {
		items, err := repo.List(ctx, db, userID, domain.ListFilter{Type: domain.TypeEarn}, pagination.Pagination{PageSize: 10})
		require.NoError(t, err)
		require.Len(t, items, 2)
		for _, item := range items {
			assert.Equal(t, domain.TypeEarn, item.Type)
		}
	})

	t.Run("filter by time window", func(t *testing.T) {
		from := base.Add(time.Minute)
		to := base.Add(2 * time.Minute)
		items, err := repo.List(ctx, db, userID, domain.ListFilter{CreatedFrom: &from, CreatedTo: &to}, pagination.Pagination{PageSize: 10})
		require.NoError(t, err)
		require.Len(t, items, 2)
	})

	t.Run("fetches one past the page size", func(t *testing.T) {
		items, err := repo.List(ctx, db, userID, domain.ListFilter{}, pagination.Pagination{PageSize: 2})
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("cursor excludes the anchor row", func(t *testing.T) {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: base.Add(2 * time.Minute).Format(time.RFC3339Nano),
		})
		require.NoError(t, err)

		items, err := repo.List(ctx, db, userID, domain.ListFilter{}, pagination.Pagination{PageSize: 10, PageToken: token})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, int64(50), items[0].Amount)
		assert.Equal(t, int64(100), items[1].Amount)
	})
}

func TestRepository_ListCursorBreaksTimestampTies(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()
	userID := node.Generate()

	// A burst committed in one transaction shares a single clock read, so
	// every row carries the same created_at.
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(ctx, db, entry(node, userID, domain.TypeEarn, int64(i+1), at)))
	}

	seen := map[snowflake.ID]bool{}
	token := ""
	for {
		items, err := repo.List(ctx, db, userID, domain.ListFilter{}, pagination.Pagination{PageSize: 2, PageToken: token})
		require.NoError(t, err)
		if len(items) == 0 {
			break
		}

		page := items
		hasMore := len(items) > 2
		if hasMore {
			page = items[:2]
		}
		for _, item := range page {
			assert.False(t, seen[item.ID], "row %s returned twice", item.ID)
			seen[item.ID] = true
		}
		if !hasMore {
			break
		}

		last := page[len(page)-1]
		token, err = pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.Format(time.RFC3339Nano),
		})
		require.NoError(t, err)
	}

	assert.Len(t, seen, 5)
}

func TestRepository_Fold(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()
	userID := node.Generate()
	now := time.Now().UTC()

	require.NoError(t, repo.Insert(ctx, db, entry(node, userID, domain.TypeEarn, 1000, now)))
	require.NoError(t, repo.Insert(ctx, db, entry(node, userID, domain.TypeBonus, 200, now)))
	require.NoError(t, repo.Insert(ctx, db, entry(node, userID, domain.TypeRedeem, -300, now)))
	require.NoError(t, repo.Insert(ctx, db, entry(node, userID, domain.TypeExpiration, -100, now)))
	require.NoError(t, repo.Insert(ctx, db, entry(node, userID, domain.TypeAdjustment, -50, now)))

	fold, err := repo.Fold(ctx, db, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1150), fold.Earned)
	assert.Equal(t, int64(400), fold.Redeemed)
	assert.Equal(t, int64(750), fold.Balance)
	assert.Equal(t, fold.Balance, fold.Earned-fold.Redeemed)
}

func TestRepository_FoldEmptyLedger(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()

	fold, err := repo.Fold(context.Background(), db, node.Generate())
	require.NoError(t, err)
	assert.Equal(t, domain.Fold{}, fold)
}
