package notify

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"setup_scanner/internal/modules/config"
	market "setup_scanner/internal/modules/market/service"
	"setup_scanner/internal/modules/notify/service"
	scanner "setup_scanner/internal/modules/scanner/service"
	telegram "setup_scanner/internal/modules/telegram_bot/service"
)

func NewFormatter(cfg *config.Config, mc *market.Context) *service.Formatter {
	a := cfg.Alert
	return service.NewFormatter(service.FormatConfig{
		TZOffset:   a.TZOffset,
		TZLabel:    a.TZLabel,
		StopATR:    a.StopATR,
		TargetATR:  a.TargetATR,
		MarketInfo: a.MarketInfo,
	}, mc)
}

// NewKafka: nil, если kafka.enabled=false.
func NewKafka(cfg *config.Config) (*service.Kafka, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	return service.NewKafka(service.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
}

// NewDispatcher: Telegram, если включён, иначе stdout.
func NewDispatcher(f *service.Formatter, tg *telegram.Telegram, k *service.Kafka, log *zap.Logger) *service.Dispatcher {
	var senders []service.TextSender
	if tg != nil {
		senders = append(senders, tg)
	} else {
		senders = append(senders, service.NewStdout(os.Stdout, log))
	}

	var sinks []service.EventSink
	if k != nil {
		sinks = append(sinks, k)
	}
	return service.NewDispatcher(f, senders, sinks, log)
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			NewFormatter,
			NewKafka,
			NewDispatcher,
			// адаптер: *service.Dispatcher -> scanner.Dispatcher
			func(d *service.Dispatcher) scanner.Dispatcher {
				return d
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, k *service.Kafka) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return k.Close()
				},
			})
		}),
	)
}
