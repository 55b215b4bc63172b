package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists user_loyalty rows. FindForUpdate takes the
// row-level lock that serializes mutations per user.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*UserLoyalty, error)
	FindForUpdate(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*UserLoyalty, error)
	// EnsureRow inserts the row if absent and is a no-op otherwise, so a
	// first award and a concurrent first award converge on one row.
	EnsureRow(ctx context.Context, db *gorm.DB, row *UserLoyalty) error
	Update(ctx context.Context, db *gorm.DB, row *UserLoyalty) error
}
