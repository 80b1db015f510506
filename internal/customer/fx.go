package customer

import (
	"github.com/medloop/aushadhi/internal/customer/repository"
	"github.com/medloop/aushadhi/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
