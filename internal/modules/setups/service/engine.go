package service

import (
	"setup_scanner/internal/models"
	"setup_scanner/internal/modules/config"
	indicators "setup_scanner/internal/modules/indicators/service"
)

// Result — сработавший сетап.
type Result struct {
	Setup   models.Setup
	Matched bool
}

// Engine проверяет правила строго по порядку и останавливается на первом
// совпадении. Порядок задаёт приоритет: 5, 6, 1, 2, 4, 3.
type Engine struct {
	rules []Rule
}

func NewEngine(cfg *config.Config) *Engine {
	return NewEngineWithThresholds(ThresholdsFromConfig(cfg.Setups))
}

func NewEngineWithThresholds(t Thresholds) *Engine {
	return &Engine{rules: []Rule{
		highConfluence(t),
		breakout(t),
		rigorous(t),
		intermediate(t),
		reversal(t),
		light(t),
	}}
}

// Order — ID сетапов в порядке проверки.
func (e *Engine) Order() []models.SetupID {
	out := make([]models.SetupID, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.Setup.ID
	}
	return out
}

func (e *Engine) Evaluate(snap indicators.Snapshot, s *indicators.Series) (Result, bool) {
	for _, r := range e.rules {
		if ok, _ := r.Match(snap, s); ok {
			return Result{Setup: r.Setup, Matched: true}, true
		}
	}
	return Result{}, false
}

// Verdict — разбор одного правила для debug-логов.
type Verdict struct {
	Setup      models.Setup
	Matched    bool
	Conditions []Condition
}

// Explain прогоняет все правила без short-circuit.
func (e *Engine) Explain(snap indicators.Snapshot, s *indicators.Series) []Verdict {
	out := make([]Verdict, 0, len(e.rules))
	for _, r := range e.rules {
		ok, conds := r.Match(snap, s)
		out = append(out, Verdict{Setup: r.Setup, Matched: ok, Conditions: conds})
	}
	return out
}
