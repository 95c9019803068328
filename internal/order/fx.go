package order

import (
	"github.com/ksheermitra/backend/internal/order/repository"
	"github.com/ksheermitra/backend/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
