package customer

import (
	"github.com/ksheermitra/backend/internal/customer/repository"
	"github.com/ksheermitra/backend/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
