package service

import (
	"sort"
	"sync"
	"time"

	"setup_scanner/internal/models"
)

// Match: сработавший сетап по активу в рамках цикла.
type Match struct {
	Symbol string
	Setup  models.SetupID
}

// CycleReport: итог одного прохода по вселенной.
type CycleReport struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time

	Assets       int // размер вселенной
	Scanned      int // дошли до движка сетапов
	Insufficient int
	Errors       int
	Skipped      int // не начаты из-за /stop посреди цикла

	Matched    []Match
	Sent       int
	Suppressed int // cooldown
	Gated      int // Setup 3 погашен per-cycle набором
	Failed     int // ошибка доставки
}

func (r CycleReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// MatchedSymbols: символы с совпадением, по алфавиту.
func (r CycleReport) MatchedSymbols() []string {
	out := make([]string, 0, len(r.Matched))
	for _, m := range r.Matched {
		out = append(out, m.Symbol)
	}
	sort.Strings(out)
	return out
}

type outcome int

const (
	outcomeScanned outcome = iota
	outcomeInsufficient
	outcomeError
	outcomeSkipped
)

type alertResult int

const (
	alertNone alertResult = iota
	alertSent
	alertSuppressed
	alertGated
	alertFailed
)

// tally собирает результаты воркеров под мьютексом.
type tally struct {
	mu  sync.Mutex
	rep CycleReport
}

func (t *tally) add(o outcome, m *Match, a alertResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch o {
	case outcomeScanned:
		t.rep.Scanned++
	case outcomeInsufficient:
		t.rep.Insufficient++
	case outcomeError:
		t.rep.Errors++
	case outcomeSkipped:
		t.rep.Skipped++
	}
	if m != nil {
		t.rep.Matched = append(t.rep.Matched, *m)
	}
	switch a {
	case alertSent:
		t.rep.Sent++
	case alertSuppressed:
		t.rep.Suppressed++
	case alertGated:
		t.rep.Gated++
	case alertFailed:
		t.rep.Failed++
	}
}

func (t *tally) report() CycleReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.rep
	r.Matched = append([]Match(nil), t.rep.Matched...)
	sort.Slice(r.Matched, func(i, j int) bool { return r.Matched[i].Symbol < r.Matched[j].Symbol })
	return r
}
