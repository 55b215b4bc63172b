package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrCatalogEmpty    = errors.New("tier_catalog_empty")
	ErrNoBaselineTier  = errors.New("tier_catalog_missing_baseline")
	ErrDuplicateRank   = errors.New("tier_catalog_duplicate_rank")
	ErrDuplicateThresh = errors.New("tier_catalog_duplicate_threshold")
	ErrNotFound        = errors.New("not_found")
)

// Tier is a rung on the loyalty ladder, unlocked at a qualifying threshold.
type Tier struct {
	ID                  snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name                string            `gorm:"not null" json:"name"`
	QualifyingThreshold int64             `gorm:"not null" json:"qualifying_threshold"`
	Rank                int               `gorm:"not null;uniqueIndex:ux_tiers_rank" json:"rank"`
	Benefits            datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"benefits,omitempty"`
	CreatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tier) TableName() string { return "tiers" }

// Evaluation is the result of mapping a qualifying metric onto the ladder.
type Evaluation struct {
	Tier         Tier  `json:"tier"`
	NextTier     *Tier `json:"next_tier,omitempty"`
	PointsToNext int64 `json:"points_to_next"`
}

// Repository reads and seeds the tiers table.
type Repository interface {
	ListAll(ctx context.Context, db *gorm.DB) ([]Tier, error)
	Upsert(ctx context.Context, db *gorm.DB, tier *Tier) error
}

// Service exposes the in-memory catalog snapshot.
type Service interface {
	// Bootstrap seeds configured tier definitions and loads the first
	// snapshot. Fails on an empty or baseline-less catalog.
	Bootstrap(ctx context.Context) error
	// Snapshot returns the current immutable catalog. The returned value
	// stays coherent even while a reload is in flight.
	Snapshot() Catalog
	// Reload re-reads the tiers table and swaps the snapshot atomically.
	Reload(ctx context.Context) (Catalog, error)
}
