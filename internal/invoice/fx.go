package invoice

import (
	"github.com/ksheermitra/backend/internal/invoice/render"
	"github.com/ksheermitra/backend/internal/invoice/repository"
	"github.com/ksheermitra/backend/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.New),
)
