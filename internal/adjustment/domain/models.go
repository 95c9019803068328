package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DailyAdjustment overrides a subscription's quantity on one calendar date.
// A zero quantity pauses delivery for that day.
type DailyAdjustment struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	SubscriptionID   snowflake.ID `gorm:"not null;uniqueIndex:ux_daily_adjustments_subscription_date" json:"subscription_id"`
	AdjustmentDate   time.Time    `gorm:"type:date;not null;uniqueIndex:ux_daily_adjustments_subscription_date" json:"adjustment_date"`
	AdjustedQuantity int64        `gorm:"not null" json:"adjusted_quantity"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (DailyAdjustment) TableName() string { return "daily_adjustments" }
