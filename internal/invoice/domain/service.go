package domain

import (
	"context"
	"errors"

	"github.com/ksheermitra/backend/pkg/db/pagination"
)

type Service interface {
	// GenerateMonthlyInvoice bills the customer for month, stores the PDF
	// and notifies the customer. Regenerating a month replaces the document.
	GenerateMonthlyInvoice(ctx context.Context, customerID string, month string) (*Invoice, error)
	// GenerateMonthlyInvoices runs GenerateMonthlyInvoice for every customer.
	// Per-customer failures are collected, not fatal.
	GenerateMonthlyInvoices(ctx context.Context, month string) (BatchResult, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (*Invoice, error)
	Download(ctx context.Context, id string) (*Document, error)
}

type ListInvoiceRequest struct {
	CustomerID string
	Month      string
	PageToken  string
	PageSize   int32
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type BatchResult struct {
	Month     string `json:"month"`
	Customers int    `json:"customers"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

var (
	ErrNothingToBill     = errors.New("nothing_to_bill")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidCustomerID = errors.New("invalid_customer_id")
	ErrInvalidMonth      = errors.New("invalid_month")
	ErrNotFound          = errors.New("not_found")
	ErrDocumentMissing   = errors.New("document_missing")
)
