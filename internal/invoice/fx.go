package invoice

import (
	"github.com/medloop/aushadhi/internal/invoice/repository"
	"github.com/medloop/aushadhi/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(service.NewDomainService),
	fx.Provide(service.NewAssembler),
)
