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

type Customer struct {
	ID   snowflake.ID
	Name string
}

// Subscription is the billing view of a recurring commitment.
type Subscription struct {
	ID           snowflake.ID
	StartDate    time.Time
	EndDate      *time.Time
	IsActive     bool
	ScheduleType ScheduleType
	// DaysOfWeek is the raw comma separated weekday list used by weekly schedules.
	DaysOfWeek  string
	Composition Composition
}

// Composition is either LegacySingle or MultiItem. A nil Composition means the
// subscription has neither form populated.
type Composition interface {
	isComposition()
}

// LegacySingle bills one product at a flat per-day quantity, priced live.
type LegacySingle struct {
	ProductID snowflake.ID
	Quantity  int64
}

// MultiItem bills every item on every in-scope day at its captured price.
type MultiItem struct {
	Items []Item
}

type Item struct {
	ProductID   snowflake.ID
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

func (LegacySingle) isComposition() {}
func (MultiItem) isComposition()    {}

// Adjustment overrides a legacy subscription's quantity on one date.
type Adjustment struct {
	SubscriptionID snowflake.ID
	Date           time.Time
	Quantity       int64
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID        snowflake.ID
	ProductID snowflake.ID
	Quantity  int64
	OrderDate time.Time
	Status    OrderStatus
}

// Product carries the live catalogue price.
type Product struct {
	ID        snowflake.ID
	Name      string
	UnitPrice decimal.Decimal
}

// LineItem is one resolved billable unit before grouping.
type LineItem struct {
	Date        time.Time
	ProductID   snowflake.ID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int64
}
