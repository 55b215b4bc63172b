package events

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Kind identifies a domain event type.
type Kind string

const (
	KindPointsAwarded  Kind = "points.awarded"
	KindPointsRedeemed Kind = "points.redeemed"
	KindPointsAdjusted Kind = "points.adjusted"
	KindTierChanged    Kind = "tier.changed"
)

// Event is the envelope delivered to subscribers. Delivery is
// best-effort: a slow consumer never blocks or fails the mutation that
// produced the event.
type Event struct {
	ID         string       `json:"id"`
	Kind       Kind         `json:"kind"`
	UserID     snowflake.ID `json:"user_id"`
	OccurredAt time.Time    `json:"occurred_at"`
	Payload    any          `json:"payload"`
}

// PointsChanged is the payload for award/redeem/adjust events.
type PointsChanged struct {
	TransactionID snowflake.ID `json:"transaction_id"`
	Type          string       `json:"type"`
	Amount        int64        `json:"amount"`
	BalanceAfter  int64        `json:"balance_after"`
	ReferenceID   string       `json:"reference_id,omitempty"`
}

// TierChanged is the payload published when a user's tier moves.
type TierChanged struct {
	PreviousTierID snowflake.ID `json:"previous_tier_id"`
	PreviousTier   string       `json:"previous_tier"`
	NewTierID      snowflake.ID `json:"new_tier_id"`
	NewTier        string       `json:"new_tier"`
}
