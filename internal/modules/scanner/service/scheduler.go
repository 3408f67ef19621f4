package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"setup_scanner/internal/models"
)

type cycleRunner interface {
	RunCycle(ctx context.Context) (CycleReport, error)
}

// Scheduler запускает циклы по фиксированному wall-clock интервалу.
// Первый цикл — сразу. Тики, пропущенные во время долгого цикла,
// не копятся: time.Ticker держит максимум один.
type Scheduler struct {
	runner   cycleRunner
	interval time.Duration
	log      *zap.Logger

	// AfterCycle вызывается после каждой попытки цикла, в том числе на паузе.
	AfterCycle func(CycleReport, error)
}

func NewScheduler(runner cycleRunner, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{runner: runner, interval: interval, log: log.Named("scheduler")}
}

// Run блокируется до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	rep, err := s.runner.RunCycle(ctx)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrPaused):
		s.log.Debug("scanner paused, cycle skipped")
	case errors.Is(err, context.Canceled):
	default:
		s.log.Error("cycle failed", zap.Error(err))
	}
	if s.AfterCycle != nil {
		s.AfterCycle(rep, err)
	}
}
