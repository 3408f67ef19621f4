package okx_client

import (
	"go.uber.org/fx"

	"setup_scanner/internal/modules/okx_client/service"
)

func Module() fx.Option {
	return fx.Module("okx_client",
		fx.Provide(
			service.NewClient, // *service.Client
		),
	)
}
