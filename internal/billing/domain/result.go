package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Money is a decimal amount rendered with two fraction digits.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

type BillItem struct {
	ProductID   snowflake.ID `json:"product_id"`
	ProductName string       `json:"product_name"`
	UnitPrice   Money        `json:"unit_price"`
	Quantity    int64        `json:"quantity"`
	LineTotal   Money        `json:"line_total"`
}

type DailyBreakdown struct {
	// Date is YYYY-MM-DD.
	Date     string     `json:"date"`
	Items    []BillItem `json:"items"`
	DayTotal Money      `json:"day_total"`
}

const (
	WarningDataInconsistency = "data_inconsistency"
	WarningMissingProduct    = "missing_product"
)

// Warning is a non-fatal problem found while billing. The affected
// subscription or order contributes nothing.
type Warning struct {
	Code           string        `json:"code"`
	SubscriptionID *snowflake.ID `json:"subscription_id,omitempty"`
	OrderID        *snowflake.ID `json:"order_id,omitempty"`
	ProductID      *snowflake.ID `json:"product_id,omitempty"`
	Message        string        `json:"message"`
}

type MonthlyBill struct {
	CustomerID     snowflake.ID     `json:"customer_id"`
	CustomerName   string           `json:"customer_name"`
	Month          Month            `json:"month"`
	DailyBreakdown []DailyBreakdown `json:"daily_breakdown"`
	MonthTotal     Money            `json:"month_total"`
	Warnings       []Warning        `json:"warnings,omitempty"`
}

// IsEmpty reports whether nothing was billable in the month.
func (b MonthlyBill) IsEmpty() bool {
	return len(b.DailyBreakdown) == 0
}
