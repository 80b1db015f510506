package reporting

import (
	"github.com/medloop/aushadhi/internal/reporting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reporting.service",
	fx.Provide(
		service.NewService,
		service.NewDomainService,
	),
)
