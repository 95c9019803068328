package option

import (
	"strconv"
	"time"

	"github.com/ksheermitra/backend/pkg/db/pagination"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 250
)

// QueryOption mutates a gorm statement.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type cursorPagination struct {
	page pagination.Pagination
}

// ApplyPagination adds keyset pagination over (created_at desc, id desc) and
// fetches one extra row so callers can detect a following page.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return cursorPagination{page: page}
}

func (p cursorPagination) Apply(stmt *gorm.DB) *gorm.DB {
	size := p.page.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	if p.page.PageToken != "" {
		if cursor, err := pagination.DecodeCursor(p.page.PageToken); err == nil {
			id, idErr := strconv.ParseInt(cursor.ID, 10, 64)
			createdAt, tsErr := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
			if idErr == nil && tsErr == nil {
				stmt = stmt.Where("(created_at < ? OR (created_at = ? AND id < ?))", createdAt, createdAt, id)
			}
		}
	}

	return stmt.Limit(size + 1)
}
