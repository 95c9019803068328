package adjustment

import (
	"github.com/ksheermitra/backend/internal/adjustment/repository"
	"github.com/ksheermitra/backend/internal/adjustment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adjustment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
