package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"setup_scanner/internal/models"
)

// TextSender: канал доставки готового текста (Telegram, stdout).
type TextSender interface {
	SendText(ctx context.Context, text string) error
}

// EventSink: вторичный поток структурированных алертов (Kafka).
type EventSink interface {
	Publish(ctx context.Context, a models.Alert) error
}

// Dispatcher форматирует алерт и рассылает его по всем каналам.
// Ошибка любого TextSender — ошибка доставки; сбой EventSink только логируется.
type Dispatcher struct {
	f       *Formatter
	senders []TextSender
	sinks   []EventSink
	log     *zap.Logger
}

func NewDispatcher(f *Formatter, senders []TextSender, sinks []EventSink, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{f: f, senders: senders, sinks: sinks, log: log.Named("dispatch")}
}

func (d *Dispatcher) Dispatch(ctx context.Context, a models.Alert) error {
	if len(d.senders) == 0 {
		return fmt.Errorf("%w: no senders configured", models.ErrDispatch)
	}

	text := d.f.Format(ctx, a)

	var errs error
	for _, s := range d.senders {
		errs = multierr.Append(errs, s.SendText(ctx, text))
	}
	if errs != nil {
		if !errors.Is(errs, models.ErrDispatch) {
			errs = fmt.Errorf("%w: %v", models.ErrDispatch, errs)
		}
		return errs
	}

	for _, sink := range d.sinks {
		if err := sink.Publish(ctx, a); err != nil {
			d.log.Warn("event sink failed",
				zap.String("symbol", a.Symbol),
				zap.String("setup", a.Setup.Label),
				zap.Error(err),
			)
		}
	}
	return nil
}
