package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ksheermitra/backend/internal/billing/domain"
)

// adjustmentKey identifies one override: subscription plus calendar date.
type adjustmentKey struct {
	subscriptionID snowflake.ID
	date           string
}

// adjustmentIndex holds the effective override per (subscription, date).
type adjustmentIndex map[adjustmentKey]int64

// indexAdjustments keeps the last row seen for a key.
func indexAdjustments(adjustments []domain.Adjustment) adjustmentIndex {
	idx := make(adjustmentIndex, len(adjustments))
	for _, adj := range adjustments {
		idx[adjustmentKey{subscriptionID: adj.SubscriptionID, date: domain.DateKey(adj.Date)}] = adj.Quantity
	}
	return idx
}

func (idx adjustmentIndex) lookup(subscriptionID snowflake.ID, date time.Time) (int64, bool) {
	q, ok := idx[adjustmentKey{subscriptionID: subscriptionID, date: domain.DateKey(date)}]
	return q, ok
}

// InScope reports whether sub is billable on date.
func InScope(sub domain.Subscription, date time.Time) bool {
	if !sub.IsActive {
		return false
	}
	day := domain.TruncateDate(date)
	if domain.TruncateDate(sub.StartDate).After(day) {
		return false
	}
	if sub.EndDate != nil && domain.TruncateDate(*sub.EndDate).Before(day) {
		return false
	}

	switch normalizeSchedule(sub.ScheduleType) {
	case domain.ScheduleWeekly:
		return weekdaySet(sub.DaysOfWeek)[day.Weekday()]
	default:
		// daily, unset and unknown schedule types bill every day.
		return true
	}
}

func normalizeSchedule(s domain.ScheduleType) domain.ScheduleType {
	return domain.ScheduleType(strings.ToLower(strings.TrimSpace(string(s))))
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// weekdaySet parses "Monday, thursday" into a set. Unknown names are ignored.
func weekdaySet(raw string) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, 7)
	for _, part := range strings.Split(raw, ",") {
		if wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(part))]; ok {
			set[wd] = true
		}
	}
	return set
}

// Resolve returns the line items sub contributes on date. Callers check
// InScope first. A subscription without a composition, or a legacy one whose
// product is unknown, yields no items and a warning.
func Resolve(sub domain.Subscription, date time.Time, adjustments adjustmentIndex, products map[snowflake.ID]domain.Product) ([]domain.LineItem, *domain.Warning) {
	day := domain.TruncateDate(date)

	switch c := sub.Composition.(type) {
	case domain.LegacySingle:
		product, ok := products[c.ProductID]
		if !ok {
			return nil, missingProductWarning(sub.ID, c.ProductID)
		}
		qty := c.Quantity
		if adjusted, ok := adjustments.lookup(sub.ID, day); ok {
			qty = adjusted
		}
		return []domain.LineItem{{
			Date:        day,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.UnitPrice,
			Quantity:    qty,
		}}, nil

	case domain.MultiItem:
		if len(c.Items) == 0 {
			return nil, noCompositionWarning(sub.ID)
		}
		items := make([]domain.LineItem, 0, len(c.Items))
		for _, it := range c.Items {
			items = append(items, domain.LineItem{
				Date:        day,
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				UnitPrice:   it.UnitPrice,
				Quantity:    it.Quantity,
			})
		}
		return items, nil

	default:
		return nil, noCompositionWarning(sub.ID)
	}
}

func noCompositionWarning(subscriptionID snowflake.ID) *domain.Warning {
	id := subscriptionID
	return &domain.Warning{
		Code:           domain.WarningDataInconsistency,
		SubscriptionID: &id,
		Message:        "subscription has neither a product quantity nor items",
	}
}

func missingProductWarning(subscriptionID, productID snowflake.ID) *domain.Warning {
	sid, pid := subscriptionID, productID
	return &domain.Warning{
		Code:           domain.WarningMissingProduct,
		SubscriptionID: &sid,
		ProductID:      &pid,
		Message:        fmt.Sprintf("product %s not found", productID),
	}
}
