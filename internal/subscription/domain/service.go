package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Subscription, error)
	Get(ctx context.Context, id string) (*Subscription, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Subscription, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Subscription, error)
	Delete(ctx context.Context, id string) error
}

type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// CreateRequest carries exactly one composition: ProductID with
// QuantityPerDay, or Items. Dates are YYYY-MM-DD.
type CreateRequest struct {
	CustomerID     string        `json:"customer_id"`
	ProductID      *string       `json:"product_id"`
	QuantityPerDay *int64        `json:"quantity_per_day"`
	Items          []ItemRequest `json:"items"`
	StartDate      string        `json:"start_date"`
	EndDate        *string       `json:"end_date"`
	ScheduleType   string        `json:"schedule_type"`
	DaysOfWeek     []string      `json:"days_of_week"`
}

// UpdateRequest changes only the fields that are set. ClearEndDate makes the
// subscription open-ended again.
type UpdateRequest struct {
	QuantityPerDay *int64        `json:"quantity_per_day"`
	EndDate        *string       `json:"end_date"`
	ClearEndDate   bool          `json:"clear_end_date"`
	IsActive       *bool         `json:"is_active"`
	ScheduleType   *string       `json:"schedule_type"`
	DaysOfWeek     []string      `json:"days_of_week"`
	Items          []ItemRequest `json:"items"`
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidCustomerID  = errors.New("invalid_customer_id")
	ErrCustomerNotFound   = errors.New("customer_not_found")
	ErrInvalidProduct     = errors.New("invalid_product")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidComposition = errors.New("invalid_composition")
	ErrInvalidSchedule    = errors.New("invalid_schedule_type")
	ErrInvalidDaysOfWeek  = errors.New("invalid_days_of_week")
	ErrInvalidStartDate   = errors.New("invalid_start_date")
	ErrInvalidEndDate     = errors.New("invalid_end_date")
	ErrNotFound           = errors.New("not_found")
)
