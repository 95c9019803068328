package billing

import (
	"github.com/ksheermitra/backend/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(service.NewSource),
	fx.Provide(service.New),
)
