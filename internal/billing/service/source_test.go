package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	adjustmentdomain "github.com/ksheermitra/backend/internal/adjustment/domain"
	adjustmentrepo "github.com/ksheermitra/backend/internal/adjustment/repository"
	"github.com/ksheermitra/backend/internal/billing/domain"
	customerdomain "github.com/ksheermitra/backend/internal/customer/domain"
	customerrepo "github.com/ksheermitra/backend/internal/customer/repository"
	orderdomain "github.com/ksheermitra/backend/internal/order/domain"
	orderrepo "github.com/ksheermitra/backend/internal/order/repository"
	productdomain "github.com/ksheermitra/backend/internal/product/domain"
	productrepo "github.com/ksheermitra/backend/internal/product/repository"
	subscriptiondomain "github.com/ksheermitra/backend/internal/subscription/domain"
	subscriptionrepo "github.com/ksheermitra/backend/internal/subscription/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&productdomain.Product{},
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.SubscriptionItem{},
		&adjustmentdomain.DailyAdjustment{},
		&orderdomain.Order{},
	))
	return db
}

func newStoreSource(db *gorm.DB) domain.Source {
	return NewSource(SourceParams{
		DB:               db,
		Log:              zap.NewNop(),
		CustomerRepo:     customerrepo.Provide(),
		ProductRepo:      productrepo.Provide(),
		SubscriptionRepo: subscriptionrepo.Provide(),
		AdjustmentRepo:   adjustmentrepo.Provide(),
		OrderRepo:        orderrepo.Provide(),
	})
}

func TestStoreBackedMonthlyBilling(t *testing.T) {
	db := setupStore(t)
	ctx := context.Background()

	const (
		customerID snowflake.ID = 1000
		milkID     snowflake.ID = 2001
		curdID     snowflake.ID = 2002
		paneerID   snowflake.ID = 2003
		dailySub   snowflake.ID = 3001
		mondaySub  snowflake.ID = 3002
	)

	require.NoError(t, db.Create(&customerdomain.Customer{ID: customerID, Name: "Meera", Phone: "9876500000"}).Error)
	require.NoError(t, db.Create(&[]productdomain.Product{
		{ID: milkID, Name: "Cow milk", Unit: "litre", UnitPrice: decimal.RequireFromString("28"), Active: true},
		{ID: curdID, Name: "Curd", Unit: "cup", UnitPrice: decimal.RequireFromString("50"), Active: true},
		{ID: paneerID, Name: "Paneer", Unit: "pack", UnitPrice: decimal.RequireFromString("90"), Active: true},
	}).Error)

	milk, qty := milkID, int64(2)
	weekly, monday := "weekly", "Monday"
	require.NoError(t, db.Create(&subscriptiondomain.Subscription{
		ID: dailySub, CustomerID: customerID, ProductID: &milk, QuantityPerDay: &qty,
		StartDate: day(2023, 11, 1), IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&subscriptiondomain.Subscription{
		ID: mondaySub, CustomerID: customerID, StartDate: day(2024, 1, 1), IsActive: true,
		ScheduleType: &weekly, DaysOfWeek: &monday,
	}).Error)
	// Snapshot price differs from the live catalogue price.
	require.NoError(t, db.Create(&subscriptiondomain.SubscriptionItem{
		ID: 4001, SubscriptionID: mondaySub, ProductID: curdID, Quantity: 1, PricePerUnit: decimal.RequireFromString("45.50"),
	}).Error)
	require.NoError(t, db.Create(&adjustmentdomain.DailyAdjustment{
		ID: 5001, SubscriptionID: dailySub, AdjustmentDate: day(2024, 1, 10), AdjustedQuantity: 0,
	}).Error)
	require.NoError(t, db.Create(&[]orderdomain.Order{
		{ID: 6001, CustomerID: customerID, ProductID: paneerID, Quantity: 1, OrderDate: day(2024, 1, 5), Status: orderdomain.StatusDelivered},
		{ID: 6002, CustomerID: customerID, ProductID: paneerID, Quantity: 3, OrderDate: day(2024, 1, 6), Status: orderdomain.StatusCancelled},
		{ID: 6003, CustomerID: customerID, ProductID: paneerID, Quantity: 1, OrderDate: day(2024, 2, 1), Status: orderdomain.StatusPending},
	}).Error)

	svc := newTestService(newStoreSource(db), zap.NewNop())
	bill, err := svc.ComputeMonthlyBilling(ctx, customerID.String(), "2024-01")
	require.NoError(t, err)

	assert.Equal(t, "Meera", bill.CustomerName)
	assert.Empty(t, bill.Warnings)
	// 31 days of milk minus the paused 10th = 30 x 56.00, five Mondays of
	// curd at 45.50 and one paneer order.
	assert.Equal(t, "1997.50", bill.MonthTotal.StringFixed(2))
	assert.Len(t, bill.DailyBreakdown, 30)

	first := bill.DailyBreakdown[0]
	assert.Equal(t, "2024-01-01", first.Date)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "Cow milk", first.Items[0].ProductName)
	assert.Equal(t, "Curd", first.Items[1].ProductName)
	assert.Equal(t, "45.50", first.Items[1].UnitPrice.StringFixed(2))
	assert.Equal(t, "101.50", first.DayTotal.StringFixed(2))

	for _, d := range bill.DailyBreakdown {
		assert.NotEqual(t, "2024-01-10", d.Date)
	}
}

func TestStoreSourceUnknownCustomer(t *testing.T) {
	db := setupStore(t)

	customer, err := newStoreSource(db).GetCustomer(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, customer)
}

func TestStoreSourceMissingItemProductName(t *testing.T) {
	db := setupStore(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&subscriptiondomain.Subscription{
		ID: 1, CustomerID: 7, StartDate: day(2024, 1, 1), IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&subscriptiondomain.SubscriptionItem{
		ID: 2, SubscriptionID: 1, ProductID: 99, Quantity: 1, PricePerUnit: decimal.RequireFromString("10"),
	}).Error)

	subs, err := newStoreSource(db).ListSubscriptions(ctx, 7)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	multi, ok := subs[0].Composition.(domain.MultiItem)
	require.True(t, ok)
	require.Len(t, multi.Items, 1)
	assert.Equal(t, "Product 99", multi.Items[0].ProductName)
	assert.True(t, multi.Items[0].UnitPrice.Equal(decimal.NewFromInt(10)))
}
