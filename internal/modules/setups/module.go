package setups

import (
	"go.uber.org/fx"

	"setup_scanner/internal/modules/setups/service"
)

func Module() fx.Option {
	return fx.Module("setups",
		fx.Provide(
			service.NewEngine, // *service.Engine
		),
	)
}
