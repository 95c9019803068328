package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/ksheermitra/backend/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	CustomerID snowflake.ID
	Month      string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	// UpdateDocument replaces amount, document and delivery state of an
	// existing invoice.
	UpdateDocument(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	UpdateDelivery(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByPeriod(ctx context.Context, db *gorm.DB, customerID snowflake.ID, invoiceType Type, month string) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Invoice, error)
}
