package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"setup_scanner/internal/models"
	dedup "setup_scanner/internal/modules/dedup/service"
	indicators "setup_scanner/internal/modules/indicators/service"
	setups "setup_scanner/internal/modules/setups/service"
	universe "setup_scanner/internal/modules/universe/service"
)

// ErrCycleRunning: предыдущий цикл ещё не закончился.
var ErrCycleRunning = errors.New("scan cycle already running")

// Dispatcher доставляет алерт. Ошибка означает, что алерт не ушёл.
type Dispatcher interface {
	Dispatch(ctx context.Context, a models.Alert) error
}

// CandleSource: источник свечей (OKX REST).
type CandleSource interface {
	FetchSeries(ctx context.Context, instID, bar string, limit int) (models.CandleSeries, error)
}

// Indicators: *indicators.Pipeline.
type Indicators interface {
	Compute(cs models.CandleSeries) (*indicators.Series, indicators.Snapshot, error)
}

// Evaluator: *setups.Engine.
type Evaluator interface {
	Evaluate(snap indicators.Snapshot, s *indicators.Series) (setups.Result, bool)
}

type Options struct {
	TopN            int
	Timeframe       string
	CandleLimit     int
	Concurrency     int
	FetchTimeout    time.Duration
	FetchRetries    int
	RetryBackoff    time.Duration
	DispatchTimeout time.Duration

	Precision int32
	StopATR   float64
	TargetATR float64
	ChartURL  string // fmt-шаблон с одним %s
}

// Deps: коллабораторы сканера.
type Deps struct {
	Universe   universe.Provider
	Candles    CandleSource
	Pipeline   Indicators
	Engine     Evaluator
	Dedup      *dedup.Deduper
	Cycle      *dedup.CycleSet
	Dispatcher Dispatcher
	Control    *Control
	Metrics    *Metrics
	Log        *zap.Logger
}

type Scanner struct {
	opts Options
	Deps

	running sync.Mutex
	now     func() time.Time
}

func NewScanner(opts Options, deps Deps) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 10 * time.Second
	}
	if opts.Timeframe == "" {
		opts.Timeframe = "4H"
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	deps.Log = deps.Log.Named("scanner")
	if deps.Cycle == nil {
		deps.Cycle = dedup.NewCycleSet()
	}
	if deps.Control == nil {
		deps.Control = NewControl(true)
	}
	return &Scanner{opts: opts, Deps: deps, now: time.Now}
}

// RunCycle: один проход по вселенной. Ошибка только на уровне цикла
// (пауза, параллельный запуск, вселенная недоступна); сбои по активам
// изолированы и видны в отчёте.
func (s *Scanner) RunCycle(ctx context.Context) (CycleReport, error) {
	if !s.Control.Active() {
		s.observeCycle("paused", CycleReport{})
		return CycleReport{}, models.ErrPaused
	}
	if !s.running.TryLock() {
		return CycleReport{}, ErrCycleRunning
	}
	defer s.running.Unlock()

	span, ctx := opentracing.StartSpanFromContext(ctx, "scanner.cycle")
	defer span.Finish()

	cycleID := uuid.NewString()
	t := &tally{}
	t.rep.ID = cycleID
	t.rep.StartedAt = s.now().UTC()
	span.SetTag("cycle", cycleID)
	log := s.Log.With(zap.String("cycle", cycleID))

	s.Cycle.Reset()
	s.Dedup.Recover(ctx)

	symbols, err := s.Universe.TopAssets(ctx, s.opts.TopN)
	if err != nil {
		ext.Error.Set(span, true)
		log.Error("universe unavailable", zap.String("provider", s.Universe.Name()), zap.Error(err))
		rep := t.report()
		rep.FinishedAt = s.now().UTC()
		s.observeCycle("failed", rep)
		return rep, fmt.Errorf("universe %s: %w", s.Universe.Name(), err)
	}
	t.rep.Assets = len(symbols)
	log.Info("cycle started", zap.Int("assets", len(symbols)))

	sem := make(chan struct{}, s.opts.Concurrency)
	var wg sync.WaitGroup

	for _, sym := range symbols {
		sem <- struct{}{}
		// /stop посреди цикла: новые активы не начинаем
		if !s.Control.Active() || ctx.Err() != nil {
			<-sem
			t.add(outcomeSkipped, nil, alertNone)
			continue
		}

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			s.scanAsset(ctx, cycleID, symbol, t, log)
		}(sym)
	}
	wg.Wait()

	rep := t.report()
	rep.FinishedAt = s.now().UTC()
	s.observeCycle("done", rep)

	log.Info("cycle finished",
		zap.Int("scanned", rep.Scanned),
		zap.Int("insufficient", rep.Insufficient),
		zap.Int("errors", rep.Errors),
		zap.Int("skipped", rep.Skipped),
		zap.Strings("matched", rep.MatchedSymbols()),
		zap.Int("sent", rep.Sent),
		zap.Int("suppressed", rep.Suppressed),
		zap.Int("failed", rep.Failed),
		zap.Duration("took", rep.Duration()),
	)
	return rep, nil
}

func (s *Scanner) scanAsset(ctx context.Context, cycleID, symbol string, t *tally, log *zap.Logger) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "scanner.asset")
	defer span.Finish()
	span.SetTag("symbol", symbol)

	log = log.With(zap.String("symbol", symbol))

	cs, err := s.fetch(ctx, symbol)
	if err != nil {
		ext.Error.Set(span, true)
		log.Warn("fetch failed", zap.Error(err))
		s.observeAsset("error")
		t.add(outcomeError, nil, alertNone)
		return
	}

	series, snap, err := s.Pipeline.Compute(cs)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			log.Warn("insufficient data, skipped", zap.Int("candles", cs.Len()))
			s.observeAsset("insufficient")
			t.add(outcomeInsufficient, nil, alertNone)
			return
		}
		ext.Error.Set(span, true)
		log.Error("indicators failed", zap.Error(err))
		s.observeAsset("error")
		t.add(outcomeError, nil, alertNone)
		return
	}
	s.observeAsset("scanned")

	res, ok := s.Engine.Evaluate(snap, series)
	if !ok {
		t.add(outcomeScanned, nil, alertNone)
		return
	}

	setup := res.Setup
	m := &Match{Symbol: symbol, Setup: setup.ID}
	span.SetTag("setup", setup.Label)
	log = log.With(zap.String("setup", setup.Label))
	s.observeMatch(setup.ID)

	if setup.ID.Weakest() && s.Cycle.Has(symbol) {
		log.Debug("weak setup gated, stronger signal already fired this cycle")
		s.observeAlert(setup, "gated")
		t.add(outcomeScanned, m, alertGated)
		return
	}

	alert := s.buildAlert(cycleID, symbol, setup, snap)
	key := alert.Key()

	if !s.Dedup.IsEligible(ctx, key, alert.GeneratedAt) {
		log.Info("alert suppressed by cooldown")
		s.observeAlert(setup, "suppressed")
		t.add(outcomeScanned, m, alertSuppressed)
		return
	}

	if !setup.ID.Weakest() {
		s.Cycle.Add(symbol)
	}

	dctx, cancel := context.WithTimeout(ctx, s.opts.DispatchTimeout)
	err = s.Dispatcher.Dispatch(dctx, alert)
	cancel()
	if err != nil {
		// не помечаем отправленным: следующий цикл попробует снова
		s.Dedup.Rollback(ctx, key)
		ext.Error.Set(span, true)
		log.Error("dispatch failed", zap.Error(err))
		s.observeAlert(setup, "failed")
		t.add(outcomeScanned, m, alertFailed)
		return
	}

	s.Dedup.MarkSent(ctx, key, alert.GeneratedAt)
	log.Info("alert sent", zap.Float64("price", alert.Price))
	s.observeAlert(setup, "sent")
	t.add(outcomeScanned, m, alertSent)
}

func (s *Scanner) fetch(ctx context.Context, symbol string) (models.CandleSeries, error) {
	var lastErr error
	for attempt := 0; attempt <= s.opts.FetchRetries; attempt++ {
		if attempt > 0 && s.opts.RetryBackoff > 0 {
			select {
			case <-ctx.Done():
				return models.CandleSeries{}, ctx.Err()
			case <-time.After(s.opts.RetryBackoff):
			}
		}

		fctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
		cs, err := s.Candles.FetchSeries(fctx, symbol, s.opts.Timeframe, s.opts.CandleLimit)
		cancel()
		if err == nil {
			return cs, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return models.CandleSeries{}, lastErr
}

func (s *Scanner) buildAlert(cycleID, symbol string, setup models.Setup, snap indicators.Snapshot) models.Alert {
	stop, target := Levels(snap.Close, snap.ATR, s.opts.StopATR, s.opts.TargetATR, s.opts.Precision)

	var chart string
	if s.opts.ChartURL != "" {
		chart = fmt.Sprintf(s.opts.ChartURL, universe.ChartSymbol(symbol))
	}

	return models.Alert{
		CycleID:     cycleID,
		Symbol:      symbol,
		Timeframe:   s.opts.Timeframe,
		Setup:       setup,
		Price:       snap.Close,
		Stop:        stop,
		Target:      target,
		RSI:         snap.RSI,
		ADX:         snap.ADX,
		ATR:         snap.ATR,
		Volume:      snap.Volume,
		ChartURL:    chart,
		GeneratedAt: s.now().UTC(),
	}
}

// Levels: stop = price − stopMult×ATR, target = price + targetMult×ATR,
// округлённые до precision знаков.
func Levels(price, atr, stopMult, targetMult float64, precision int32) (stop, target float64) {
	p := decimal.NewFromFloat(price)
	a := decimal.NewFromFloat(atr)
	stop = p.Sub(a.Mul(decimal.NewFromFloat(stopMult))).Round(precision).InexactFloat64()
	target = p.Add(a.Mul(decimal.NewFromFloat(targetMult))).Round(precision).InexactFloat64()
	return stop, target
}

func (s *Scanner) observeCycle(result string, rep CycleReport) {
	if result != "paused" {
		s.Control.recordCycle(rep)
	}
	if s.Metrics == nil {
		return
	}
	s.Metrics.Cycles.WithLabelValues(result).Inc()
	if result == "done" {
		s.Metrics.CycleDuration.Observe(rep.Duration().Seconds())
		s.Metrics.LastCycle.Set(float64(rep.FinishedAt.Unix()))
	}
}

func (s *Scanner) observeAsset(outcome string) {
	if s.Metrics != nil {
		s.Metrics.Assets.WithLabelValues(outcome).Inc()
	}
}

func (s *Scanner) observeMatch(id models.SetupID) {
	if s.Metrics != nil {
		s.Metrics.Matches.WithLabelValues(strconv.Itoa(int(id))).Inc()
	}
}

func (s *Scanner) observeAlert(setup models.Setup, result string) {
	if s.Metrics != nil {
		s.Metrics.Alerts.WithLabelValues(strconv.Itoa(int(setup.ID)), result).Inc()
	}
}
