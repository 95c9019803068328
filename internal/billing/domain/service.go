package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Source is the read side the billing computation depends on.
type Source interface {
	// GetCustomer returns nil, nil when the customer does not exist.
	GetCustomer(ctx context.Context, id snowflake.ID) (*Customer, error)
	// ListSubscriptions returns every subscription of the customer, active or not.
	ListSubscriptions(ctx context.Context, customerID snowflake.ID) ([]Subscription, error)
	ListAdjustments(ctx context.Context, subscriptionIDs []snowflake.ID, month Month) ([]Adjustment, error)
	// ListBillableOrders excludes cancelled orders.
	ListBillableOrders(ctx context.Context, customerID snowflake.ID, month Month) ([]Order, error)
	// GetProducts returns the current catalogue entries; unknown ids are absent.
	GetProducts(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Product, error)
}

type Service interface {
	ComputeMonthlyBilling(ctx context.Context, customerID string, month string) (MonthlyBill, error)
}

var (
	ErrInvalidCustomerID = errors.New("invalid_customer_id")
	ErrInvalidMonth      = errors.New("invalid_month")
	ErrCustomerNotFound  = errors.New("customer_not_found")
)
