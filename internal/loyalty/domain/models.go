package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UserLoyalty is the mutable per-user summary row, owned exclusively by
// the loyalty engine. current_points_balance always equals the fold of
// the user's ledger and never goes negative.
type UserLoyalty struct {
	UserID                 snowflake.ID `gorm:"primaryKey" json:"user_id"`
	CurrentPointsBalance   int64        `gorm:"not null;default:0" json:"current_points_balance"`
	LifetimePointsEarned   int64        `gorm:"not null;default:0" json:"lifetime_points_earned"`
	LifetimePointsRedeemed int64        `gorm:"not null;default:0" json:"lifetime_points_redeemed"`
	CurrentTierID          snowflake.ID `gorm:"not null" json:"current_tier_id"`
	TierQualifiedAt        time.Time    `gorm:"not null" json:"tier_qualified_at"`
	NightsCount            int64        `gorm:"not null;default:0" json:"nights_count"`
	CreatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (UserLoyalty) TableName() string { return "user_loyalty" }
