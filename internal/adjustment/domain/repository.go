package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Upsert writes the row, replacing the quantity of an existing
	// (subscription_id, adjustment_date) pair.
	Upsert(ctx context.Context, db *gorm.DB, adjustment *DailyAdjustment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*DailyAdjustment, error)
	FindBySubscriptionDate(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, date time.Time) (*DailyAdjustment, error)
	// ListRange returns adjustments of the subscriptions dated within
	// [from, to], ordered by date then subscription id. A zero from or to
	// leaves that side open.
	ListRange(ctx context.Context, db *gorm.DB, subscriptionIDs []snowflake.ID, from, to time.Time) ([]DailyAdjustment, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
