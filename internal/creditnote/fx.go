package creditnote

import (
	"github.com/medloop/aushadhi/internal/creditnote/service"
	"go.uber.org/fx"
)

var Module = fx.Module("creditnote.service",
	fx.Provide(
		service.NewService,
		service.NewDomainService,
	),
)
