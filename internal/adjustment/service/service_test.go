package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/ksheermitra/backend/internal/adjustment/domain"
	"github.com/ksheermitra/backend/internal/adjustment/repository"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
	subscriptiondomain "github.com/ksheermitra/backend/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeSubscriptions knows a fixed set of subscription ids.
type fakeSubscriptions struct {
	subscriptiondomain.Service
	known map[string]bool
}

func (f *fakeSubscriptions) Get(_ context.Context, id string) (*subscriptiondomain.Subscription, error) {
	if !f.known[id] {
		return nil, subscriptiondomain.ErrNotFound
	}
	parsed, _ := snowflake.ParseString(id)
	return &subscriptiondomain.Subscription{ID: parsed}, nil
}

func setup(t *testing.T, subs ...string) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.DailyAdjustment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	known := make(map[string]bool, len(subs))
	for _, id := range subs {
		known[id] = true
	}

	return New(Params{
		DB:              db,
		Log:             zap.NewNop(),
		GenID:           node,
		Repo:            repository.Provide(),
		SubscriptionSvc: &fakeSubscriptions{known: known},
	})
}

func qty(n int64) *int64 { return &n }

func TestUpsertLastWriteWins(t *testing.T) {
	svc := setup(t, "100")
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "100", domain.UpsertRequest{Date: "2024-01-15", Quantity: qty(3)})
	require.NoError(t, err)
	second, err := svc.Upsert(ctx, "100", domain.UpsertRequest{Date: "2024-01-15", Quantity: qty(0)})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(0), second.AdjustedQuantity)

	rows, err := svc.ListBySubscription(ctx, "100", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(0), rows[0].AdjustedQuantity)
}

func TestUpsertValidation(t *testing.T) {
	svc := setup(t, "100")
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "nope", domain.UpsertRequest{Date: "2024-01-15", Quantity: qty(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidSubscriptionID)

	_, err = svc.Upsert(ctx, "100", domain.UpsertRequest{Date: "15/01/2024", Quantity: qty(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = svc.Upsert(ctx, "100", domain.UpsertRequest{Date: "2024-01-15", Quantity: qty(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.Upsert(ctx, "100", domain.UpsertRequest{Date: "2024-01-15"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.Upsert(ctx, "200", domain.UpsertRequest{Date: "2024-01-15", Quantity: qty(1)})
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestListByMonth(t *testing.T) {
	svc := setup(t, "100", "200")
	ctx := context.Background()

	for _, date := range []string{"2024-02-01", "2024-01-31", "2024-01-01", "2023-12-31"} {
		_, err := svc.Upsert(ctx, "100", domain.UpsertRequest{Date: date, Quantity: qty(1)})
		require.NoError(t, err)
	}
	_, err := svc.Upsert(ctx, "200", domain.UpsertRequest{Date: "2024-01-10", Quantity: qty(4)})
	require.NoError(t, err)

	rows, err := svc.ListBySubscription(ctx, "100", "2024-01")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-01", billingdomain.DateKey(rows[0].AdjustmentDate))
	assert.Equal(t, "2024-01-31", billingdomain.DateKey(rows[1].AdjustmentDate))

	_, err = svc.ListBySubscription(ctx, "100", "2024-1")
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)

	month, err := billingdomain.ParseMonth("2024-01")
	require.NoError(t, err)
	all, err := svc.ListForSubscriptions(ctx, []snowflake.ID{100, 200}, month)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, snowflake.ID(100), all[0].SubscriptionID)
	assert.Equal(t, snowflake.ID(200), all[1].SubscriptionID)

	none, err := svc.ListForSubscriptions(ctx, nil, month)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	svc := setup(t, "100")
	ctx := context.Background()

	row, err := svc.Upsert(ctx, "100", domain.UpsertRequest{Date: "2024-01-15", Quantity: qty(2)})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", billingdomain.DateKey(row.AdjustmentDate))

	require.NoError(t, svc.Delete(ctx, row.ID.String()))
	assert.ErrorIs(t, svc.Delete(ctx, row.ID.String()), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, ""), domain.ErrInvalidID)
}
