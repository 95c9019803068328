package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
)

type Service interface {
	Upsert(ctx context.Context, subscriptionID string, req UpsertRequest) (*DailyAdjustment, error)
	// ListBySubscription returns the adjustments of one subscription in
	// ascending date order, limited to month when it is non-empty.
	ListBySubscription(ctx context.Context, subscriptionID string, month string) ([]DailyAdjustment, error)
	ListForSubscriptions(ctx context.Context, subscriptionIDs []snowflake.ID, month billingdomain.Month) ([]DailyAdjustment, error)
	Delete(ctx context.Context, id string) error
}

type UpsertRequest struct {
	Date     string `json:"date"`
	Quantity *int64 `json:"quantity"`
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidSubscriptionID = errors.New("invalid_subscription_id")
	ErrSubscriptionNotFound  = errors.New("subscription_not_found")
	ErrInvalidDate           = errors.New("invalid_date")
	ErrInvalidQuantity       = errors.New("invalid_quantity")
	ErrInvalidMonth          = errors.New("invalid_month")
	ErrNotFound              = errors.New("not_found")
)
