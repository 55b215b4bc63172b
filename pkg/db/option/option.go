package option

import (
	"strconv"
	"time"

	"github.com/smallbiznis/loyalty/pkg/db/pagination"
	"gorm.io/gorm"
)

// Option mutates a gorm statement before execution.
type Option interface {
	Apply(*gorm.DB) *gorm.DB
}

type paginationOption struct {
	page pagination.Pagination
}

// ApplyPagination turns a cursor/limit pair into query options. The limit is
// fetched as size+1 so callers can detect whether another page exists.
func ApplyPagination(page pagination.Pagination) Option {
	return &paginationOption{page: page}
}

func (o *paginationOption) Apply(stmt *gorm.DB) *gorm.DB {
	size := o.page.PageSize
	if size <= 0 {
		size = 10
	}

	if o.page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(o.page.PageToken)
		if err == nil && cursor != nil && cursor.CreatedAt != "" {
			if ts, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt); err == nil {
				// Listings order by (created_at DESC, id DESC); the predicate
				// must break created_at ties on id or rows sharing a
				// timestamp past the page boundary are never reached.
				if id, err := strconv.ParseInt(cursor.ID, 10, 64); err == nil {
					stmt = stmt.Where("created_at < ? OR (created_at = ? AND id < ?)", ts, ts, id)
				} else {
					stmt = stmt.Where("created_at < ?", ts)
				}
			}
		}
	}

	return stmt.Limit(size + 1)
}
