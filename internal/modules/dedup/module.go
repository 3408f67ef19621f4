package dedup

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"setup_scanner/internal/modules/config"
	"setup_scanner/internal/modules/dedup/service"
	"setup_scanner/internal/modules/dedup/service/file"
	"setup_scanner/internal/modules/dedup/service/pg"
	"setup_scanner/internal/modules/dedup/service/redis"
	"setup_scanner/internal/modules/dedup/service/sqlite"
	"setup_scanner/internal/modules/postgres"
)

// NewStore выбирает backend по dedup.backend. Внешние backend'ы подключаются
// лениво: недоступный на старте backend не валит сервис, Deduper уйдёт в
// degraded и переподключится в начале следующего цикла.
func NewStore(cfg *config.Config, log *zap.Logger) (service.Store, error) {
	d := cfg.Dedup
	switch d.Backend {
	case "", "file":
		return file.New(d.FilePath), nil
	case "sqlite":
		return service.NewReconnectingStore("sqlite", func(context.Context) (service.Store, error) {
			return sqlite.New(d.SQLitePath)
		}, log), nil
	case "postgres":
		if cfg.DB == "" {
			return nil, fmt.Errorf("dedup: postgres backend needs db_dsn / DATABASE_DSN")
		}
		return service.NewReconnectingStore("postgres", func(ctx context.Context) (service.Store, error) {
			tx, err := postgres.Connect(ctx, cfg.DB)
			if err != nil {
				return nil, err
			}
			st, err := pg.New(ctx, tx)
			if err != nil {
				tx.Close()
				return nil, err
			}
			return st, nil
		}, log), nil
	case "redis":
		return service.NewReconnectingStore("redis", func(ctx context.Context) (service.Store, error) {
			return redis.New(ctx, redis.Config{
				Addr:     d.RedisAddr,
				Password: d.RedisPass,
				DB:       d.RedisDB,
				Prefix:   d.RedisPrefix,
			})
		}, log), nil
	case "memory":
		return service.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("dedup: unknown backend %q", d.Backend)
}

func newDeduper(store service.Store, cfg *config.Config, log *zap.Logger) *service.Deduper {
	return service.NewDeduper(store, cfg.Dedup.Cooldown, log).WithTimeout(cfg.Dedup.Timeout)
}

func Module() fx.Option {
	return fx.Module("dedup",
		fx.Provide(
			NewStore,            // service.Store
			newDeduper,          // *service.Deduper
			service.NewCycleSet, // *service.CycleSet
		),
		fx.Invoke(func(lc fx.Lifecycle, d *service.Deduper) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					// ошибка загрузки не валит сервис: Deduper уже в degraded
					_ = d.Load(ctx)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return d.Close()
				},
			})
		}),
	)
}
