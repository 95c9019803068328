package config

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(func(log *zap.Logger) (*InvoiceConfigHolder, error) {
		return NewInvoiceConfigHolder(log.Named("config.invoice"))
	}),
)
