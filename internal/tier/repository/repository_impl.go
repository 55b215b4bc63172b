package repository

import (
	"context"

	"github.com/smallbiznis/loyalty/internal/tier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]domain.Tier, error) {
	var tiers []domain.Tier
	err := db.WithContext(ctx).
		Model(&domain.Tier{}).
		Order("rank asc").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, tier *domain.Tier) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tiers (id, name, qualifying_threshold, rank, benefits, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (rank) DO UPDATE SET
		   name = excluded.name,
		   qualifying_threshold = excluded.qualifying_threshold,
		   benefits = excluded.benefits,
		   updated_at = excluded.updated_at`,
		tier.ID,
		tier.Name,
		tier.QualifyingThreshold,
		tier.Rank,
		tier.Benefits,
		tier.CreatedAt,
		tier.UpdatedAt,
	).Error
}
