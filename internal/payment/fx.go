package payment

import (
	"github.com/medloop/aushadhi/internal/payment/repository"
	"github.com/medloop/aushadhi/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
		service.NewDomainService,
	),
)
