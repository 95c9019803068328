package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/ksheermitra/backend/internal/adjustment"
	"github.com/ksheermitra/backend/internal/billing"
	"github.com/ksheermitra/backend/internal/clock"
	"github.com/ksheermitra/backend/internal/config"
	"github.com/ksheermitra/backend/internal/customer"
	"github.com/ksheermitra/backend/internal/invoice"
	"github.com/ksheermitra/backend/internal/migration"
	"github.com/ksheermitra/backend/internal/observability"
	"github.com/ksheermitra/backend/internal/order"
	"github.com/ksheermitra/backend/internal/product"
	"github.com/ksheermitra/backend/internal/providers"
	"github.com/ksheermitra/backend/internal/scheduler"
	"github.com/ksheermitra/backend/internal/server"
	"github.com/ksheermitra/backend/internal/subscription"
	"github.com/ksheermitra/backend/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		providers.Module,

		// Functional Domains
		customer.Module,
		product.Module,
		subscription.Module,
		adjustment.Module,
		order.Module,
		billing.Module,
		invoice.Module,

		scheduler.Module,
		scheduler.CronModule,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
