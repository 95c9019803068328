package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	ReplaceItems(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, items []SubscriptionItem) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	// FindByID returns the subscription with its items, or nil when missing.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	// ListByCustomer returns every subscription of the customer with items, newest first.
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]Subscription, error)
}
