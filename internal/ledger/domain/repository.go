package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/loyalty/pkg/db/pagination"
	"gorm.io/gorm"
)

var (
	ErrInvalidType   = errors.New("invalid_transaction_type")
	ErrInvalidAmount = errors.New("invalid_amount")
)

// ListFilter narrows a transaction listing.
type ListFilter struct {
	Type        TransactionType
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Repository is the append-only ledger store. There is deliberately no
// update or delete operation.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tx *PointsTransaction) error
	FindByReference(ctx context.Context, db *gorm.DB, userID snowflake.ID, referenceID string, t TransactionType) (*PointsTransaction, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]*PointsTransaction, error)
	Fold(ctx context.Context, db *gorm.DB, userID snowflake.ID) (Fold, error)
}
