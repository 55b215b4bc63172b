package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/loyalty/internal/ledger/domain"
	"github.com/smallbiznis/loyalty/pkg/db/option"
	"github.com/smallbiznis/loyalty/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tx *domain.PointsTransaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO points_transactions (id, user_id, type, amount, balance_after, reference_id, reason, actor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.UserID,
		tx.Type,
		tx.Amount,
		tx.BalanceAfter,
		tx.ReferenceID,
		tx.Reason,
		tx.ActorID,
		tx.CreatedAt,
	).Error
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, userID snowflake.ID, referenceID string, t domain.TransactionType) (*domain.PointsTransaction, error) {
	var tx domain.PointsTransaction
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, type, amount, balance_after, reference_id, reason, actor_id, created_at
		 FROM points_transactions
		 WHERE user_id = ? AND reference_id = ? AND type = ?
		 LIMIT 1`,
		userID,
		referenceID,
		t,
	).Scan(&tx).Error
	if err != nil {
		return nil, err
	}
	if tx.ID == 0 {
		return nil, nil
	}
	return &tx, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]*domain.PointsTransaction, error) {
	var txs []*domain.PointsTransaction
	stmt := db.WithContext(ctx).
		Model(&domain.PointsTransaction{}).
		Where("user_id = ?", userID)
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *repo) Fold(ctx context.Context, db *gorm.DB, userID snowflake.ID) (domain.Fold, error) {
	var fold domain.Fold
	err := db.WithContext(ctx).Raw(
		`SELECT
		   COALESCE(SUM(CASE WHEN type IN (?, ?, ?) THEN amount ELSE 0 END), 0) AS earned,
		   COALESCE(-SUM(CASE WHEN type IN (?, ?) THEN amount ELSE 0 END), 0) AS redeemed,
		   COALESCE(SUM(amount), 0) AS balance
		 FROM points_transactions
		 WHERE user_id = ?`,
		domain.TypeEarn, domain.TypeBonus, domain.TypeAdjustment,
		domain.TypeRedeem, domain.TypeExpiration,
		userID,
	).Scan(&fold).Error
	if err != nil {
		return domain.Fold{}, err
	}
	return fold, nil
}
