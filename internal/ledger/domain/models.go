package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TransactionType is the closed set of point-affecting event kinds.
type TransactionType string

const (
	TypeEarn       TransactionType = "earn"
	TypeRedeem     TransactionType = "redeem"
	TypeAdjustment TransactionType = "adjustment"
	TypeExpiration TransactionType = "expiration"
	TypeBonus      TransactionType = "bonus"
)

// Types lists every transaction type, for validation and filters.
func Types() []TransactionType {
	return []TransactionType{TypeEarn, TypeRedeem, TypeAdjustment, TypeExpiration, TypeBonus}
}

func (t TransactionType) Valid() bool {
	switch t {
	case TypeEarn, TypeRedeem, TypeAdjustment, TypeExpiration, TypeBonus:
		return true
	default:
		return false
	}
}

// SignRule constrains the amount sign a transaction type accepts.
type SignRule int

const (
	SignCredit SignRule = iota // amount must be positive
	SignDebit                  // amount must be negative
	SignAny                    // any non-zero amount
)

// SignRule returns the amount-sign constraint for the type.
func (t TransactionType) SignRule() SignRule {
	switch t {
	case TypeEarn, TypeBonus:
		return SignCredit
	case TypeRedeem, TypeExpiration:
		return SignDebit
	case TypeAdjustment:
		return SignAny
	default:
		return SignAny
	}
}

// LifetimeBucket identifies which lifetime counter a transaction folds into.
// Earned feeds the tier-qualifying metric; redeemed does not.
type LifetimeBucket int

const (
	BucketEarned LifetimeBucket = iota
	BucketRedeemed
)

// Bucket returns the lifetime counter the type's amount folds into.
// Earn, bonus and adjustments move lifetime_points_earned (signed, so a
// negative adjustment lowers the qualifying metric). Redeem and expiration
// accumulate into lifetime_points_redeemed.
func (t TransactionType) Bucket() LifetimeBucket {
	switch t {
	case TypeEarn, TypeBonus, TypeAdjustment:
		return BucketEarned
	case TypeRedeem, TypeExpiration:
		return BucketRedeemed
	default:
		return BucketEarned
	}
}

// TierDirection constrains how a transaction type may move the tier.
type TierDirection int

const (
	TierHold       TierDirection = iota // tier cannot change
	TierRiseOnly                        // tier may rise or stay
	TierRiseOrFall                      // tier may move either way
)

// TierDirection returns the tier movement the type permits.
func (t TransactionType) TierDirection() TierDirection {
	switch t {
	case TypeEarn, TypeBonus:
		return TierRiseOnly
	case TypeRedeem, TypeExpiration:
		return TierHold
	case TypeAdjustment:
		return TierRiseOrFall
	default:
		return TierHold
	}
}

// PointsTransaction is an immutable ledger row. Corrections are new
// adjustment rows, never edits.
type PointsTransaction struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID       snowflake.ID    `gorm:"not null;index:idx_points_transactions_user_created,priority:1" json:"user_id"`
	Type         TransactionType `gorm:"type:text;not null" json:"type"`
	Amount       int64           `gorm:"not null" json:"amount"`
	BalanceAfter int64           `gorm:"not null" json:"balance_after"`
	ReferenceID  string          `gorm:"type:text" json:"reference_id,omitempty"`
	Reason       string          `gorm:"type:text" json:"reason,omitempty"`
	ActorID      string          `gorm:"type:text" json:"actor_id,omitempty"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_points_transactions_user_created,priority:2" json:"created_at"`
}

// TableName sets the database table name.
func (PointsTransaction) TableName() string { return "points_transactions" }

// Fold is the authoritative projection of a user's ledger.
type Fold struct {
	Earned   int64
	Redeemed int64
	Balance  int64
}
