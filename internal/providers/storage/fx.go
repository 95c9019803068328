package storage

import (
	"context"

	"github.com/ksheermitra/backend/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.storage",
	fx.Provide(func(cfg config.Config, log *zap.Logger) (Storage, error) {
		return NewFromConfig(context.Background(), cfg, log)
	}),
)
