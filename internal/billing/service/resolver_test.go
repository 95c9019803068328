package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ksheermitra/backend/internal/billing/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func TestInScopeBounds(t *testing.T) {
	sub := domain.Subscription{
		ID:        1,
		IsActive:  true,
		StartDate: day(2024, 1, 10),
		EndDate:   ptr(day(2024, 1, 20)),
	}

	assert.False(t, InScope(sub, day(2024, 1, 9)))
	assert.True(t, InScope(sub, day(2024, 1, 10)))
	assert.True(t, InScope(sub, day(2024, 1, 20)))
	assert.False(t, InScope(sub, day(2024, 1, 21)))

	sub.EndDate = nil
	assert.True(t, InScope(sub, day(2030, 1, 1)))

	sub.IsActive = false
	assert.False(t, InScope(sub, day(2024, 1, 15)))
}

func TestInScopeIgnoresClockTime(t *testing.T) {
	sub := domain.Subscription{
		IsActive:  true,
		StartDate: time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC),
	}
	assert.True(t, InScope(sub, day(2024, 1, 10)))
}

func TestInScopeSchedules(t *testing.T) {
	base := domain.Subscription{IsActive: true, StartDate: day(2024, 1, 1)}
	monday := day(2024, 1, 1)
	tuesday := day(2024, 1, 2)
	thursday := day(2024, 1, 4)

	cases := []struct {
		name     string
		schedule domain.ScheduleType
		days     string
		date     time.Time
		want     bool
	}{
		{"unset", "", "", tuesday, true},
		{"daily", domain.ScheduleDaily, "", tuesday, true},
		{"weekly hit", domain.ScheduleWeekly, "Monday,Thursday", thursday, true},
		{"weekly miss", domain.ScheduleWeekly, "Monday,Thursday", tuesday, false},
		{"weekly spaced lower", "Weekly", " monday , THURSDAY ", monday, true},
		{"weekly empty", domain.ScheduleWeekly, "", monday, false},
		{"weekly junk", domain.ScheduleWeekly, "Mon,Funday", monday, false},
		{"custom", domain.ScheduleCustom, "Monday", tuesday, true},
		{"unknown", "fortnightly", "", tuesday, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := base
			sub.ScheduleType = tc.schedule
			sub.DaysOfWeek = tc.days
			assert.Equal(t, tc.want, InScope(sub, tc.date))
		})
	}
}

func TestWeeklyMatchesMondaysAndThursdays(t *testing.T) {
	sub := domain.Subscription{
		IsActive:     true,
		StartDate:    day(2000, 1, 1),
		ScheduleType: domain.ScheduleWeekly,
		DaysOfWeek:   "Monday,Thursday",
	}

	for year := 2023; year <= 2025; year++ {
		for m := time.January; m <= time.December; m++ {
			month := domain.Month{Year: year, Month: m}
			want, got := 0, 0
			for _, d := range month.Dates() {
				if d.Weekday() == time.Monday || d.Weekday() == time.Thursday {
					want++
				}
				if InScope(sub, d) {
					got++
				}
			}
			assert.Equal(t, want, got, month.String())
		}
	}
}

func TestResolveLegacyUsesAdjustment(t *testing.T) {
	products := map[snowflake.ID]domain.Product{
		10: {ID: 10, Name: "Cow milk", UnitPrice: decimal.RequireFromString("28")},
	}
	sub := domain.Subscription{ID: 1, Composition: domain.LegacySingle{ProductID: 10, Quantity: 2}}
	adjustments := indexAdjustments([]domain.Adjustment{
		{SubscriptionID: 1, Date: day(2024, 1, 15), Quantity: 5},
		{SubscriptionID: 1, Date: day(2024, 1, 15), Quantity: 0},
		{SubscriptionID: 2, Date: day(2024, 1, 16), Quantity: 9},
	})

	items, warn := Resolve(sub, day(2024, 1, 14), adjustments, products)
	require.Nil(t, warn)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].Quantity)
	assert.Equal(t, "Cow milk", items[0].ProductName)

	items, warn = Resolve(sub, day(2024, 1, 15), adjustments, products)
	require.Nil(t, warn)
	require.Len(t, items, 1)
	assert.Equal(t, int64(0), items[0].Quantity, "last adjustment wins")

	items, _ = Resolve(sub, day(2024, 1, 16), adjustments, products)
	assert.Equal(t, int64(2), items[0].Quantity, "other subscription's adjustment ignored")
}

func TestResolveMultiItemUsesSnapshot(t *testing.T) {
	products := map[snowflake.ID]domain.Product{
		20: {ID: 20, Name: "Curd", UnitPrice: decimal.RequireFromString("99")},
	}
	sub := domain.Subscription{ID: 3, Composition: domain.MultiItem{Items: []domain.Item{
		{ProductID: 20, ProductName: "Curd", Quantity: 3, UnitPrice: decimal.RequireFromString("10")},
		{ProductID: 21, ProductName: "Paneer", Quantity: 1, UnitPrice: decimal.RequireFromString("25")},
	}}}
	adjustments := indexAdjustments([]domain.Adjustment{{SubscriptionID: 3, Date: day(2024, 2, 1), Quantity: 0}})

	items, warn := Resolve(sub, day(2024, 2, 1), adjustments, products)
	require.Nil(t, warn)
	require.Len(t, items, 2)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, int64(3), items[0].Quantity)
}

func TestResolveWarnsInsteadOfFailing(t *testing.T) {
	none := domain.Subscription{ID: 4}
	items, warn := Resolve(none, day(2024, 1, 1), nil, nil)
	assert.Empty(t, items)
	require.NotNil(t, warn)
	assert.Equal(t, domain.WarningDataInconsistency, warn.Code)
	assert.Equal(t, snowflake.ID(4), *warn.SubscriptionID)

	empty := domain.Subscription{ID: 5, Composition: domain.MultiItem{}}
	_, warn = Resolve(empty, day(2024, 1, 1), nil, nil)
	require.NotNil(t, warn)
	assert.Equal(t, domain.WarningDataInconsistency, warn.Code)

	orphan := domain.Subscription{ID: 6, Composition: domain.LegacySingle{ProductID: 77, Quantity: 1}}
	_, warn = Resolve(orphan, day(2024, 1, 1), nil, nil)
	require.NotNil(t, warn)
	assert.Equal(t, domain.WarningMissingProduct, warn.Code)
}
