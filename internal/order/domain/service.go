package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	// ListByCustomer lists every order of the customer, limited to month
	// when it is non-empty.
	ListByCustomer(ctx context.Context, customerID string, month string) ([]Order, error)
	// ListBillable lists the non-cancelled orders dated within month.
	ListBillable(ctx context.Context, customerID snowflake.ID, month billingdomain.Month) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status string) (*Order, error)
}

type CreateRequest struct {
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id"`
	Quantity   int64  `json:"quantity"`
	OrderDate  string `json:"order_date"`
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidCustomerID = errors.New("invalid_customer_id")
	ErrCustomerNotFound  = errors.New("customer_not_found")
	ErrInvalidProduct    = errors.New("invalid_product")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidOrderDate  = errors.New("invalid_order_date")
	ErrInvalidMonth      = errors.New("invalid_month")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrNotFound          = errors.New("not_found")
)
