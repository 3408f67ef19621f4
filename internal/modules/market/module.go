package market

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"setup_scanner/internal/modules/config"
	"setup_scanner/internal/modules/market/service"
)

func NewContext(cfg *config.Config, log *zap.Logger) *service.Context {
	events := make([]service.Event, 0, len(cfg.Market.Events))
	for _, e := range cfg.Market.Events {
		events = append(events, service.Event{Date: e.Date, Title: e.Title})
	}
	return service.New(service.Config{
		GlobalURL:    cfg.Market.GlobalURL,
		FearGreedURL: cfg.Market.FearGreedURL,
		Timeout:      cfg.Market.Timeout,
		CacheTTL:     cfg.Market.CacheTTL,
		Events:       events,
	}, log)
}

func Module() fx.Option {
	return fx.Module("market",
		fx.Provide(
			NewContext, // *service.Context
		),
	)
}
