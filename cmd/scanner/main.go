package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"setup_scanner/internal/modules/config"
	"setup_scanner/internal/modules/dedup"
	"setup_scanner/internal/modules/health"
	"setup_scanner/internal/modules/indicators"
	"setup_scanner/internal/modules/market"
	"setup_scanner/internal/modules/notify"
	okx "setup_scanner/internal/modules/okx_client"
	"setup_scanner/internal/modules/scanner"
	"setup_scanner/internal/modules/setups"
	telegram "setup_scanner/internal/modules/telegram_bot"
	"setup_scanner/internal/modules/universe"
	"setup_scanner/pkg/logger"
	"setup_scanner/pkg/tracing"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(cfg.Service.Name)
	return logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
}

func initTracing(lc fx.Lifecycle, cfg *config.Config, l *zap.Logger) error {
	tracing.SetServiceName(cfg.Service.Name)
	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := closer.Close(); err != nil {
				l.Warn("tracer close", zap.Error(err))
			}
			return nil
		},
	})
	return nil
}

func options() []fx.Option {
	return []fx.Option{
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			newLogger,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Invoke(initTracing),
		config.Module(),
		health.Module(),
		okx.Module(),
		universe.Module(),
		indicators.Module(),
		setups.Module(),
		dedup.Module(),
		market.Module(),
		telegram.Module(),
		notify.Module(),
		scanner.Module(),
	}
}

func main() {
	app := fx.New(options()...)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	app.Run()
}
