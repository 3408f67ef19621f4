package indicators

import (
	"go.uber.org/fx"

	"setup_scanner/internal/modules/indicators/service"
)

func Module() fx.Option {
	return fx.Module("indicators",
		fx.Provide(
			service.NewPipeline, // *service.Pipeline
		),
	)
}
