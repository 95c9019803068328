package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/ksheermitra/backend/internal/product/domain"
	"github.com/ksheermitra/backend/internal/product/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{DB: db, Log: zap.NewNop(), GenID: node, Repo: repository.Provide()})
}

func TestCreateValidates(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Name: "", Unit: "litre"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Cow milk", Unit: "litre", UnitPrice: decimal.RequireFromString("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidUnitPrice)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Cow milk", UnitPrice: decimal.RequireFromString("56")})
	assert.ErrorIs(t, err, domain.ErrInvalidUnit)
}

func TestCreateUpdateAndLookup(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:      "Buffalo milk",
		Unit:      "litre",
		UnitPrice: decimal.RequireFromString("64.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "64.50", created.UnitPrice)
	assert.True(t, created.Active)

	newPrice := decimal.RequireFromString("66")
	inactive := false
	updated, err := svc.Update(ctx, created.ID, domain.UpdateRequest{UnitPrice: &newPrice, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "66.00", updated.UnitPrice)
	assert.False(t, updated.Active)

	active, err := svc.List(ctx, domain.ListRequest{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	id, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	byID, err := svc.FindByIDs(ctx, []snowflake.ID{id, id, 999})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.True(t, byID[id].UnitPrice.Equal(newPrice))

	_, err = svc.Get(ctx, "999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Get(ctx, "milk")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
