package service

import (
	"fmt"

	"setup_scanner/internal/models"
	indicators "setup_scanner/internal/modules/indicators/service"
)

// Condition — одно проверенное условие правила.
type Condition struct {
	Name string
	OK   bool
}

// Rule — сетап и его условия. MinHits == 0 означает "все условия".
type Rule struct {
	Setup      models.Setup
	MinHits    int
	Conditions func(snap indicators.Snapshot, s *indicators.Series) []Condition
}

// Match проверяет правило и возвращает разбор условий.
func (r Rule) Match(snap indicators.Snapshot, s *indicators.Series) (bool, []Condition) {
	if s == nil || s.Len() < 2 {
		return false, nil
	}
	conds := r.Conditions(snap, s)
	hits := 0
	for _, c := range conds {
		if c.OK {
			hits++
		}
	}
	if r.MinHits <= 0 {
		return hits == len(conds), conds
	}
	return hits >= r.MinHits, conds
}

// общие условия, которые используют несколько сетапов
type bar struct {
	snap indicators.Snapshot
	prev indicators.Snapshot
	last models.Candle
	pc   models.Candle // предыдущая свеча

	meanVolume float64
}

func newBar(snap indicators.Snapshot, s *indicators.Series) bar {
	return bar{
		snap:       snap,
		prev:       s.At(-2),
		last:       s.Candle(-1),
		pc:         s.Candle(-2),
		meanVolume: s.MeanVolume(),
	}
}

func (b bar) emaCrossUp() bool {
	return b.prev.EMAFast < b.prev.EMASlow && b.snap.EMAFast > b.snap.EMASlow
}

func (b bar) emaBullish() bool  { return b.snap.EMAFast > b.snap.EMASlow }
func (b bar) macdBullish() bool { return b.snap.MACD > b.snap.MACDSignal }
func (b bar) rsiRising() bool   { return b.snap.RSI > b.prev.RSI }
func (b bar) volumeAbove(mult float64) bool {
	return b.snap.Volume > mult*b.meanVolume
}

func rigorous(t Thresholds) Rule {
	return Rule{
		Setup: models.Setups[models.SetupRigorous],
		Conditions: func(snap indicators.Snapshot, s *indicators.Series) []Condition {
			b := newBar(snap, s)
			return []Condition{
				{fmt.Sprintf("rsi<%g", t.RigorousRSIMax), snap.RSI < t.RigorousRSIMax},
				{"ema_cross_up", b.emaCrossUp()},
				{"macd>signal", b.macdBullish()},
				{fmt.Sprintf("adx>%g", t.RigorousADXMin), snap.ADX > t.RigorousADXMin},
				{fmt.Sprintf("volume>%gx_mean", t.RigorousVolumeMult), b.volumeAbove(t.RigorousVolumeMult)},
				{"supertrend_up", snap.SupertrendUp},
			}
		},
	}
}

func intermediate(t Thresholds) Rule {
	return Rule{
		Setup: models.Setups[models.SetupIntermediate],
		Conditions: func(snap indicators.Snapshot, s *indicators.Series) []Condition {
			b := newBar(snap, s)
			return []Condition{
				{fmt.Sprintf("rsi<%g", t.IntermediateRSIMax), snap.RSI < t.IntermediateRSIMax},
				{"ema_fast>ema_slow", b.emaBullish()},
				{"macd>signal", b.macdBullish()},
				{fmt.Sprintf("adx>%g", t.IntermediateADXMin), snap.ADX > t.IntermediateADXMin},
				{"volume>mean", b.volumeAbove(1)},
			}
		},
	}
}

func light(t Thresholds) Rule {
	return Rule{
		Setup:   models.Setups[models.SetupLight],
		MinHits: t.LightMinHits,
		Conditions: func(snap indicators.Snapshot, s *indicators.Series) []Condition {
			b := newBar(snap, s)
			return []Condition{
				{"ema_fast>ema_slow", b.emaBullish()},
				{fmt.Sprintf("adx>%g", t.LightADXMin), snap.ADX > t.LightADXMin},
				{"volume>mean", b.volumeAbove(1)},
			}
		},
	}
}

func reversal(Thresholds) Rule {
	return Rule{
		Setup: models.Setups[models.SetupReversal],
		Conditions: func(snap indicators.Snapshot, s *indicators.Series) []Condition {
			b := newBar(snap, s)
			return []Condition{
				{"obv>mean", snap.OBV > s.MeanOBV()},
				{"prev_bullish", b.pc.Bullish()},
				{"close>prev_close", b.last.Close > b.pc.Close},
				{"hammer|engulfing", IsHammer(b.last) || IsBullishEngulfing(b.pc, b.last)},
				{"rsi_rising", b.rsiRising()},
			}
		},
	}
}

func highConfluence(t Thresholds) Rule {
	return Rule{
		Setup:   models.Setups[models.SetupHighConfluence],
		MinHits: t.ConfluenceMinHits,
		Conditions: func(snap indicators.Snapshot, s *indicators.Series) []Condition {
			b := newBar(snap, s)
			return []Condition{
				{fmt.Sprintf("rsi<%g", t.ConfluenceRSIMax), snap.RSI < t.ConfluenceRSIMax},
				{"ema_cross_up", b.emaCrossUp()},
				{"macd>signal", b.macdBullish()},
				{"atr>mean", snap.ATR > s.MeanATR()},
				{"obv>mean", snap.OBV > s.MeanOBV()},
				{fmt.Sprintf("adx>%g", t.ConfluenceADXMin), snap.ADX > t.ConfluenceADXMin},
				{"close>ema_trend", snap.Close > snap.EMATrend},
				{"volume>mean", b.volumeAbove(1)},
				{"supertrend_up", snap.SupertrendUp},
				{"strong_candle", IsStrongCandle(b.last)},
			}
		},
	}
}

func breakout(t Thresholds) Rule {
	return Rule{
		Setup: models.Setups[models.SetupBreakout],
		Conditions: func(snap indicators.Snapshot, s *indicators.Series) []Condition {
			b := newBar(snap, s)
			return []Condition{
				{fmt.Sprintf("close>high_%d", t.BreakoutLookback), snap.Close > s.HighestHigh(t.BreakoutLookback)},
				{"volume>mean", b.volumeAbove(1)},
				{fmt.Sprintf("rsi>%g", t.BreakoutRSIMin), snap.RSI > t.BreakoutRSIMin},
				{"rsi_rising", b.rsiRising()},
				{"supertrend_up", snap.SupertrendUp},
			}
		},
	}
}
