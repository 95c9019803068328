// Package domain contains persistence models for recurring milk subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ScheduleType string

const (
	ScheduleDaily  ScheduleType = "daily"
	ScheduleWeekly ScheduleType = "weekly"
	ScheduleCustom ScheduleType = "custom"
)

// Subscription is either a legacy single-product subscription (ProductID and
// QuantityPerDay set) or a multi-item one (Items set).
type Subscription struct {
	ID             snowflake.ID       `gorm:"primaryKey" json:"id"`
	CustomerID     snowflake.ID       `gorm:"not null;index" json:"customer_id"`
	ProductID      *snowflake.ID      `gorm:"index" json:"product_id,omitempty"`
	QuantityPerDay *int64             `json:"quantity_per_day,omitempty"`
	StartDate      time.Time          `gorm:"type:date;not null" json:"start_date"`
	EndDate        *time.Time         `gorm:"type:date" json:"end_date,omitempty"`
	IsActive       bool               `gorm:"not null;default:true" json:"is_active"`
	ScheduleType   *string            `gorm:"type:text" json:"schedule_type,omitempty"`
	DaysOfWeek     *string            `gorm:"type:text" json:"days_of_week,omitempty"`
	Items          []SubscriptionItem `gorm:"foreignKey:SubscriptionID" json:"items,omitempty"`
	CreatedAt      time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// SubscriptionItem is one product of a multi-item subscription. PricePerUnit
// is captured when the item is written and never re-read from the catalogue.
type SubscriptionItem struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	SubscriptionID snowflake.ID    `gorm:"not null;index" json:"subscription_id"`
	ProductID      snowflake.ID    `gorm:"not null;index" json:"product_id"`
	Quantity       int64           `gorm:"not null" json:"quantity"`
	PricePerUnit   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_per_unit"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (SubscriptionItem) TableName() string { return "subscription_items" }

type CompositionKind int

const (
	CompositionNone CompositionKind = iota
	CompositionLegacy
	CompositionMultiItem
	// CompositionConflict means both forms are populated.
	CompositionConflict
)

// Composition reports which form the stored row uses.
func (s Subscription) Composition() CompositionKind {
	legacy := s.ProductID != nil && s.QuantityPerDay != nil
	multi := len(s.Items) > 0
	switch {
	case legacy && multi:
		return CompositionConflict
	case legacy:
		return CompositionLegacy
	case multi:
		return CompositionMultiItem
	default:
		return CompositionNone
	}
}
