package product

import (
	"github.com/ksheermitra/backend/internal/product/repository"
	"github.com/ksheermitra/backend/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
