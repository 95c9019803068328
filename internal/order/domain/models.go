package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Order is a one-off purchase delivered on OrderDate.
type Order struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;index" json:"customer_id"`
	ProductID  snowflake.ID `gorm:"not null;index" json:"product_id"`
	Quantity   int64        `gorm:"not null" json:"quantity"`
	OrderDate  time.Time    `gorm:"type:date;not null;index" json:"order_date"`
	Status     Status       `gorm:"type:text;not null;default:'pending'" json:"status"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// CanTransition reports whether an order may move from s to next.
func (s Status) CanTransition(next Status) bool {
	return s == StatusPending && (next == StatusDelivered || next == StatusCancelled)
}

func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusPending, StatusDelivered, StatusCancelled:
		return s, true
	}
	return "", false
}
