package inventory

import (
	"github.com/medloop/aushadhi/internal/inventory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("inventory.service",
	fx.Provide(
		service.NewService,
		service.NewRestocker,
	),
)
