package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/loyalty/internal/loyalty/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.UserLoyalty, error) {
	var row domain.UserLoyalty
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, current_points_balance, lifetime_points_earned, lifetime_points_redeemed,
		        current_tier_id, tier_qualified_at, nights_count, created_at, updated_at
		 FROM user_loyalty
		 WHERE user_id = ?`,
		userID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.UserID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) FindForUpdate(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.UserLoyalty, error) {
	var row domain.UserLoyalty
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, current_points_balance, lifetime_points_earned, lifetime_points_redeemed,
		        current_tier_id, tier_qualified_at, nights_count, created_at, updated_at
		 FROM user_loyalty
		 WHERE user_id = ?
		 FOR UPDATE`,
		userID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.UserID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) EnsureRow(ctx context.Context, db *gorm.DB, row *domain.UserLoyalty) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_loyalty (user_id, current_points_balance, lifetime_points_earned, lifetime_points_redeemed,
		                           current_tier_id, tier_qualified_at, nights_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		row.UserID,
		row.CurrentPointsBalance,
		row.LifetimePointsEarned,
		row.LifetimePointsRedeemed,
		row.CurrentTierID,
		row.TierQualifiedAt,
		row.NightsCount,
		row.CreatedAt,
		row.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, row *domain.UserLoyalty) error {
	return db.WithContext(ctx).Exec(
		`UPDATE user_loyalty
		 SET current_points_balance = ?,
		     lifetime_points_earned = ?,
		     lifetime_points_redeemed = ?,
		     current_tier_id = ?,
		     tier_qualified_at = ?,
		     nights_count = ?,
		     updated_at = ?
		 WHERE user_id = ?`,
		row.CurrentPointsBalance,
		row.LifetimePointsEarned,
		row.LifetimePointsRedeemed,
		row.CurrentTierID,
		row.TierQualifiedAt,
		row.NightsCount,
		row.UpdatedAt,
		row.UserID,
	).Error
}
