package domain

import (
	"context"
	"errors"
	"time"

	ledgerdomain "github.com/smallbiznis/loyalty/internal/ledger/domain"
	tierdomain "github.com/smallbiznis/loyalty/internal/tier/domain"
	"github.com/smallbiznis/loyalty/pkg/db/pagination"
)

var (
	ErrInvalidUserID          = errors.New("invalid_user_id")
	ErrInvalidAmount          = errors.New("invalid_amount")
	ErrInvalidType            = errors.New("invalid_transaction_type")
	ErrInvalidNights          = errors.New("invalid_nights")
	ErrInsufficientBalance    = errors.New("insufficient_balance")
	ErrUserNotFound           = errors.New("user_not_found")
	ErrConcurrentModification = errors.New("concurrent_modification")
)

type AwardRequest struct {
	UserID      string
	Amount      int64
	Type        ledgerdomain.TransactionType // earn or bonus; defaults to earn
	ReferenceID string
	Reason      string
}

type RedeemRequest struct {
	UserID      string
	Amount      int64
	ReferenceID string
	Reason      string
}

type AdjustRequest struct {
	UserID  string
	Delta   int64
	Reason  string
	ActorID string
}

type RecordStayRequest struct {
	UserID string
	Nights int64
}

type GetSummaryRequest struct {
	UserID string
}

type RecalculateTierRequest struct {
	UserID string
}

type ListTransactionsRequest struct {
	UserID      string
	Type        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	PageToken   string
	PageSize    int32
}

// Summary is the user's loyalty state with tier progress attached.
type Summary struct {
	UserLoyalty
	Tier         tierdomain.Tier  `json:"tier"`
	NextTier     *tierdomain.Tier `json:"next_tier,omitempty"`
	PointsToNext int64            `json:"points_to_next"`
}

// TierRecalculationResult reports a forced re-projection from the ledger.
type TierRecalculationResult struct {
	PreviousTier tierdomain.Tier `json:"previous_tier"`
	NewTier      tierdomain.Tier `json:"new_tier"`
	Changed      bool            `json:"changed"`
}

type ListTransactionsResponse struct {
	pagination.PageInfo
	Transactions []ledgerdomain.PointsTransaction `json:"transactions"`
}

// Service is the loyalty engine. All mutating operations on the same
// user are linearized through a row lock on the user_loyalty row; a
// failed mutation leaves no partial state behind.
type Service interface {
	Award(ctx context.Context, req AwardRequest) (Summary, error)
	Redeem(ctx context.Context, req RedeemRequest) (Summary, error)
	Adjust(ctx context.Context, req AdjustRequest) (Summary, error)
	RecordStay(ctx context.Context, req RecordStayRequest) (Summary, error)
	RecalculateTier(ctx context.Context, req RecalculateTierRequest) (TierRecalculationResult, error)
	GetSummary(ctx context.Context, req GetSummaryRequest) (Summary, error)
	ListTransactions(ctx context.Context, req ListTransactionsRequest) (ListTransactionsResponse, error)
}
