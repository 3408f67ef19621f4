package scanner

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"setup_scanner/internal/modules/config"
	dedup "setup_scanner/internal/modules/dedup/service"
	health "setup_scanner/internal/modules/health/service"
	indicators "setup_scanner/internal/modules/indicators/service"
	okx "setup_scanner/internal/modules/okx_client/service"
	"setup_scanner/internal/modules/scanner/service"
	setups "setup_scanner/internal/modules/setups/service"
	universe "setup_scanner/internal/modules/universe/service"
)

func NewControl(cfg *config.Config) *service.Control {
	return service.NewControl(cfg.Scanner.StartActive)
}

func NewMetrics() *service.Metrics {
	return service.NewMetrics(prometheus.DefaultRegisterer)
}

type scannerIn struct {
	fx.In

	Cfg        *config.Config
	Universe   universe.Provider
	Candles    *okx.Client
	Pipeline   *indicators.Pipeline
	Engine     *setups.Engine
	Dedup      *dedup.Deduper
	Cycle      *dedup.CycleSet
	Dispatcher service.Dispatcher
	Control    *service.Control
	Metrics    *service.Metrics
	Log        *zap.Logger
}

func NewScanner(in scannerIn) *service.Scanner {
	sc, a := in.Cfg.Scanner, in.Cfg.Alert
	return service.NewScanner(service.Options{
		TopN:            in.Cfg.Universe.TopN,
		Timeframe:       sc.Timeframe,
		CandleLimit:     sc.CandleLimit,
		Concurrency:     sc.Concurrency,
		FetchTimeout:    sc.FetchTimeout,
		FetchRetries:    sc.FetchRetries,
		RetryBackoff:    in.Cfg.OKX.RequestDelay,
		DispatchTimeout: sc.DispatchTimeout,
		Precision:       a.Precision,
		StopATR:         a.StopATR,
		TargetATR:       a.TargetATR,
		ChartURL:        a.ChartURL,
	}, service.Deps{
		Universe:   in.Universe,
		Candles:    in.Candles,
		Pipeline:   in.Pipeline,
		Engine:     in.Engine,
		Dedup:      in.Dedup,
		Cycle:      in.Cycle,
		Dispatcher: in.Dispatcher,
		Control:    in.Control,
		Metrics:    in.Metrics,
		Log:        in.Log,
	})
}

func NewScheduler(cfg *config.Config, s *service.Scanner, state *health.State, log *zap.Logger) *service.Scheduler {
	sch := service.NewScheduler(s, cfg.Scanner.Interval, log)
	sch.AfterCycle = func(rep service.CycleReport, err error) {
		if !rep.FinishedAt.IsZero() {
			state.TouchCycle(rep.FinishedAt)
		}
	}
	return sch
}

// Run стартует планировщик в фоне и останавливает его на OnStop.
func Run(lc fx.Lifecycle, sch *service.Scheduler, state *health.State, ctl *service.Control, log *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	state.SetStatus(func() health.Status {
		st := ctl.Status()
		return health.Status{Active: st.Active, LastCycle: st.LastCycle.ID, Sent: st.LastCycle.Sent}
	})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				_ = sch.Run(ctx)
			}()
			state.SetReady(true)
			log.Info("scanner started", zap.Bool("active", ctl.Active()))
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			state.SetReady(false)
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func Module() fx.Option {
	return fx.Module("scanner",
		fx.Provide(
			NewControl,
			NewMetrics,
			NewScanner,
			NewScheduler,
		),
		fx.Invoke(Run),
	)
}
