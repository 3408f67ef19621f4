package universe

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"setup_scanner/internal/modules/config"
	okx "setup_scanner/internal/modules/okx_client/service"
	"setup_scanner/internal/modules/universe/service"
)

// NewProvider выбирает источник по universe.provider.
func NewProvider(cfg *config.Config, mx *okx.Client, log *zap.Logger) (service.Provider, error) {
	u := cfg.Universe
	switch u.Provider {
	case "okx":
		return service.NewOkxWatchlist(mx, u.Quote), nil
	case "", "coingecko":
		return service.NewCoinGecko(service.CoinGeckoConfig{
			BaseURL:   u.CoinGeckoURL,
			Quote:     u.Quote,
			CachePath: u.CachePath,
			CacheTTL:  u.CacheTTL,
			Fallback:  u.Fallback,
			Timeout:   cfg.OKX.Timeout,
		}, mx, log), nil
	}
	return nil, fmt.Errorf("universe: unknown provider %q", u.Provider)
}

func Module() fx.Option {
	return fx.Module("universe",
		fx.Provide(
			NewProvider, // service.Provider
		),
	)
}
