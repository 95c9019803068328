package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/ksheermitra/backend/internal/invoice/domain"
	"github.com/ksheermitra/backend/pkg/db/option"
	"github.com/ksheermitra/backend/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) UpdateDocument(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"amount":            invoice.Amount,
			"currency":          invoice.Currency,
			"storage_key":       invoice.StorageKey,
			"sent_via_whatsapp": invoice.SentViaWhatsApp,
			"sent_via_email":    invoice.SentViaEmail,
			"metadata":          invoice.Metadata,
			"issued_on":         invoice.IssuedOn,
			"updated_at":        invoice.UpdatedAt,
		}).Error
}

func (r *repo) UpdateDelivery(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"sent_via_whatsapp": invoice.SentViaWhatsApp,
			"sent_via_email":    invoice.SentViaEmail,
			"metadata":          invoice.Metadata,
			"updated_at":        invoice.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByPeriod(ctx context.Context, db *gorm.DB, customerID snowflake.ID, invoiceType domain.Type, month string) (*domain.Invoice, error) {
	return first(db.WithContext(ctx).Where("customer_id = ? AND type = ? AND month = ?", customerID, invoiceType, month))
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Month != "" {
		stmt = stmt.Where("month = ?", filter.Month)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)

	var invoices []*domain.Invoice
	if err := stmt.Order("created_at desc, id desc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func first(stmt *gorm.DB) (*domain.Invoice, error) {
	var rows []domain.Invoice
	if err := stmt.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
