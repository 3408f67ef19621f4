package telegram

import (
	"context"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"setup_scanner/internal/modules/config"
	scanner "setup_scanner/internal/modules/scanner/service"
	"setup_scanner/internal/modules/telegram_bot/service"
)

// NewTelegram собирает бота из конфига. В режиме off (или без токена)
// возвращает nil: алерты уходят только в stdout/kafka.
func NewTelegram(cfg *config.Config, ctl *scanner.Control, log *zap.Logger) (*service.Telegram, error) {
	tg := cfg.Telegram
	if tg.Mode == "off" || tg.Token == "" {
		log.Info("telegram disabled")
		return nil, nil
	}
	return service.NewTelegram(service.Config{
		Token:      tg.Token,
		ChatID:     tg.ChatID,
		Mode:       tg.Mode,
		WebhookURL: tg.WebhookURL,
		ParseMode:  cfg.Alert.ParseMode,
		Timeout:    tg.Timeout,
	}, ctl, log)
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			NewTelegram, // *service.Telegram, может быть nil
		),
		// webhook живёт на общем http-сервере health
		fx.Invoke(func(cfg *config.Config, mux *http.ServeMux, t *service.Telegram) {
			if t != nil && cfg.Telegram.Mode == "webhook" {
				mux.Handle(t.WebhookPath(), t.WebhookHandler())
			}
		}),
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						// ctx хука короткоживущий, polling живёт до Stop
						return t.Start(context.Background())
					},
					OnStop: func(ctx context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
