package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"setup_scanner/internal/models"
)

// Stdout: dry-run доставка: текст алерта печатается в w.
type Stdout struct {
	mu  sync.Mutex
	w   io.Writer
	log *zap.Logger
}

func NewStdout(w io.Writer, log *zap.Logger) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Stdout{w: w, log: log.Named("stdout")}
}

func (s *Stdout) SendText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintln(s.w, text+"\n"); err != nil {
		return fmt.Errorf("%w: stdout: %v", models.ErrDispatch, err)
	}
	s.log.Debug("alert printed", zap.Int("bytes", len(text)))
	return nil
}
