package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	adjustmentdomain "github.com/ksheermitra/backend/internal/adjustment/domain"
	customerdomain "github.com/ksheermitra/backend/internal/customer/domain"
	customerrepo "github.com/ksheermitra/backend/internal/customer/repository"
	customerservice "github.com/ksheermitra/backend/internal/customer/service"
	productdomain "github.com/ksheermitra/backend/internal/product/domain"
	productrepo "github.com/ksheermitra/backend/internal/product/repository"
	productservice "github.com/ksheermitra/backend/internal/product/service"
	"github.com/ksheermitra/backend/internal/subscription/domain"
	"github.com/ksheermitra/backend/internal/subscription/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	svc        domain.Service
	products   productdomain.Service
	customerID string
	milkID     string
	curdID     string
}

func setup(t *testing.T) fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&productdomain.Product{},
		&domain.Subscription{},
		&domain.SubscriptionItem{},
		&adjustmentdomain.DailyAdjustment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	customers := customerservice.New(customerservice.Params{DB: db, Log: log, GenID: node, Repo: customerrepo.Provide()})
	products := productservice.New(productservice.Params{DB: db, Log: log, GenID: node, Repo: productrepo.Provide()})

	ctx := context.Background()
	customer, err := customers.Create(ctx, customerdomain.CreateCustomerRequest{Name: "Asha", Phone: "9876543210"})
	require.NoError(t, err)
	milk, err := products.Create(ctx, productdomain.CreateRequest{Name: "Cow milk", Unit: "litre", UnitPrice: decimal.RequireFromString("28")})
	require.NoError(t, err)
	curd, err := products.Create(ctx, productdomain.CreateRequest{Name: "Curd", Unit: "cup", UnitPrice: decimal.RequireFromString("45.50")})
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Repo:        repository.Provide(),
		CustomerSvc: customers,
		ProductSvc:  products,
	})

	return fixture{
		db:         db,
		svc:        svc,
		products:   products,
		customerID: customer.ID.String(),
		milkID:     milk.ID,
		curdID:     curd.ID,
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreateLegacy(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sub, err := f.svc.Create(ctx, domain.CreateRequest{
		CustomerID:     f.customerID,
		ProductID:      ptr(f.milkID),
		QuantityPerDay: ptr(int64(2)),
		StartDate:      "2024-01-01",
		ScheduleType:   "Weekly",
		DaysOfWeek:     []string{" monday", "THURSDAY", "Monday"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CompositionLegacy, sub.Composition())
	assert.Equal(t, "weekly", *sub.ScheduleType)
	assert.Equal(t, "Monday,Thursday", *sub.DaysOfWeek)
	assert.True(t, sub.IsActive)

	got, err := f.svc.Get(ctx, sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.CompositionLegacy, got.Composition())
	assert.Equal(t, int64(2), *got.QuantityPerDay)
	assert.Equal(t, "2024-01-01", got.StartDate.UTC().Format("2006-01-02"))
}

func TestCreateMultiItemSnapshotsPrices(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sub, err := f.svc.Create(ctx, domain.CreateRequest{
		CustomerID: f.customerID,
		Items: []domain.ItemRequest{
			{ProductID: f.milkID, Quantity: 3},
			{ProductID: f.curdID, Quantity: 1},
		},
		StartDate: "2024-02-01",
	})
	require.NoError(t, err)
	require.Len(t, sub.Items, 2)
	assert.Nil(t, sub.ScheduleType)

	newPrice := decimal.RequireFromString("30")
	_, err = f.products.Update(ctx, f.milkID, productdomain.UpdateRequest{UnitPrice: &newPrice})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, sub.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, domain.CompositionMultiItem, got.Composition())
	assert.Equal(t, "28.00", got.Items[0].PricePerUnit.StringFixed(2))
	assert.Equal(t, "45.50", got.Items[1].PricePerUnit.StringFixed(2))

	updated, err := f.svc.Update(ctx, sub.ID.String(), domain.UpdateRequest{
		Items: []domain.ItemRequest{{ProductID: f.milkID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "30.00", updated.Items[0].PricePerUnit.StringFixed(2))

	got, err = f.svc.Get(ctx, sub.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(2), got.Items[0].Quantity)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	base := func() domain.CreateRequest {
		return domain.CreateRequest{
			CustomerID:     f.customerID,
			ProductID:      ptr(f.milkID),
			QuantityPerDay: ptr(int64(1)),
			StartDate:      "2024-01-10",
		}
	}

	cases := []struct {
		name   string
		mutate func(*domain.CreateRequest)
		want   error
	}{
		{"bad customer id", func(r *domain.CreateRequest) { r.CustomerID = "abc" }, domain.ErrInvalidCustomerID},
		{"unknown customer", func(r *domain.CreateRequest) { r.CustomerID = "12345" }, domain.ErrCustomerNotFound},
		{"no composition", func(r *domain.CreateRequest) { r.ProductID = nil; r.QuantityPerDay = nil }, domain.ErrInvalidComposition},
		{"both compositions", func(r *domain.CreateRequest) {
			r.Items = []domain.ItemRequest{{ProductID: f.curdID, Quantity: 1}}
		}, domain.ErrInvalidComposition},
		{"zero quantity", func(r *domain.CreateRequest) { r.QuantityPerDay = ptr(int64(0)) }, domain.ErrInvalidQuantity},
		{"unknown product", func(r *domain.CreateRequest) { r.ProductID = ptr("777") }, domain.ErrInvalidProduct},
		{"bad start", func(r *domain.CreateRequest) { r.StartDate = "2024-13-01" }, domain.ErrInvalidStartDate},
		{"end before start", func(r *domain.CreateRequest) { r.EndDate = ptr("2024-01-09") }, domain.ErrInvalidEndDate},
		{"unknown schedule", func(r *domain.CreateRequest) { r.ScheduleType = "hourly" }, domain.ErrInvalidSchedule},
		{"weekly without days", func(r *domain.CreateRequest) { r.ScheduleType = "weekly" }, domain.ErrInvalidDaysOfWeek},
		{"weekly bad day", func(r *domain.CreateRequest) {
			r.ScheduleType = "weekly"
			r.DaysOfWeek = []string{"Funday"}
		}, domain.ErrInvalidDaysOfWeek},
		{"item zero quantity", func(r *domain.CreateRequest) {
			r.ProductID, r.QuantityPerDay = nil, nil
			r.Items = []domain.ItemRequest{{ProductID: f.curdID, Quantity: 0}}
		}, domain.ErrInvalidQuantity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base()
			tc.mutate(&req)
			_, err := f.svc.Create(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	req := base()
	req.EndDate = ptr("2024-01-10")
	_, err := f.svc.Create(ctx, req)
	assert.NoError(t, err, "end date equal to start date is allowed")
}

func TestUpdateAndList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, domain.CreateRequest{
		CustomerID: f.customerID, ProductID: ptr(f.milkID), QuantityPerDay: ptr(int64(1)), StartDate: "2024-01-01",
	})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, domain.CreateRequest{
		CustomerID: f.customerID, Items: []domain.ItemRequest{{ProductID: f.curdID, Quantity: 1}}, StartDate: "2024-03-01",
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, first.ID.String(), domain.UpdateRequest{
		QuantityPerDay: ptr(int64(3)),
		EndDate:        ptr("2024-06-30"),
		IsActive:       ptr(false),
		ScheduleType:   ptr("weekly"),
		DaysOfWeek:     []string{"saturday"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), *updated.QuantityPerDay)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Saturday", *updated.DaysOfWeek)

	_, err = f.svc.Update(ctx, second.ID.String(), domain.UpdateRequest{QuantityPerDay: ptr(int64(2))})
	assert.ErrorIs(t, err, domain.ErrInvalidComposition)

	_, err = f.svc.Update(ctx, first.ID.String(), domain.UpdateRequest{EndDate: ptr("2023-12-31")})
	assert.ErrorIs(t, err, domain.ErrInvalidEndDate)

	cleared, err := f.svc.Update(ctx, first.ID.String(), domain.UpdateRequest{ClearEndDate: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.EndDate)

	list, err := f.svc.ListByCustomer(ctx, f.customerID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Len(t, list[0].Items, 1)
	assert.False(t, list[1].IsActive)

	_, err = f.svc.ListByCustomer(ctx, "424242")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestDeleteCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sub, err := f.svc.Create(ctx, domain.CreateRequest{
		CustomerID: f.customerID, Items: []domain.ItemRequest{{ProductID: f.curdID, Quantity: 1}}, StartDate: "2024-03-01",
	})
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&adjustmentdomain.DailyAdjustment{
		ID: 99, SubscriptionID: sub.ID, AdjustmentDate: sub.StartDate, AdjustedQuantity: 0,
	}).Error)

	require.NoError(t, f.svc.Delete(ctx, sub.ID.String()))

	var items, adjustments int64
	require.NoError(t, f.db.Model(&domain.SubscriptionItem{}).Where("subscription_id = ?", sub.ID).Count(&items).Error)
	require.NoError(t, f.db.Model(&adjustmentdomain.DailyAdjustment{}).Where("subscription_id = ?", sub.ID).Count(&adjustments).Error)
	assert.Zero(t, items)
	assert.Zero(t, adjustments)

	_, err = f.svc.Get(ctx, sub.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, sub.ID.String()), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "x"), domain.ErrInvalidID)
}
