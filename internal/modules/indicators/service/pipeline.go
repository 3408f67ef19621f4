package service

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"setup_scanner/internal/models"
	"setup_scanner/internal/modules/config"
)

// Params — периоды индикаторов.
type Params struct {
	EMAFast              int
	EMASlow              int
	EMATrend             int
	RSIPeriod            int
	ATRPeriod            int
	ADXPeriod            int
	MACDFast             int
	MACDSlow             int
	MACDSignal           int
	SupertrendPeriod     int
	SupertrendMultiplier float64
}

// DefaultParams — EMA 9/21/200, RSI/ATR/ADX 14, MACD 12/26/9, Supertrend 10×3.
func DefaultParams() Params {
	return Params{
		EMAFast:              9,
		EMASlow:              21,
		EMATrend:             200,
		RSIPeriod:            14,
		ATRPeriod:            14,
		ADXPeriod:            14,
		MACDFast:             12,
		MACDSlow:             26,
		MACDSignal:           9,
		SupertrendPeriod:     10,
		SupertrendMultiplier: 3,
	}
}

func ParamsFromConfig(c config.Indicators) Params {
	return Params{
		EMAFast:              c.EMAFast,
		EMASlow:              c.EMASlow,
		EMATrend:             c.EMATrend,
		RSIPeriod:            c.RSIPeriod,
		ATRPeriod:            c.ATRPeriod,
		ADXPeriod:            c.ADXPeriod,
		MACDFast:             c.MACDFast,
		MACDSlow:             c.MACDSlow,
		MACDSignal:           c.MACDSignal,
		SupertrendPeriod:     c.SupertrendPeriod,
		SupertrendMultiplier: c.SupertrendMultiplier,
	}
}

// Pipeline считает индикаторы по окну свечей. Без состояния, безопасен
// для параллельного использования.
type Pipeline struct {
	p Params
}

func NewPipeline(cfg *config.Config) *Pipeline {
	return NewPipelineWithParams(ParamsFromConfig(cfg.Indicators))
}

func NewPipelineWithParams(p Params) *Pipeline {
	return &Pipeline{p: p}
}

// MinCandles — сколько свечей нужно самому медленному индикатору (EMA200).
func (p *Pipeline) MinCandles() int {
	need := p.p.EMATrend
	for _, n := range []int{
		p.p.MACDSlow + p.p.MACDSignal - 1,
		2*p.p.ADXPeriod + 1,
		p.p.RSIPeriod + 1,
		p.p.ATRPeriod + 1,
		p.p.SupertrendPeriod + 1,
	} {
		if n > need {
			need = n
		}
	}
	return need
}

// Compute возвращает серию с индикаторами и снапшот последней свечи.
// Короткое окно — models.ErrInsufficientData, снапшот не строится.
func (p *Pipeline) Compute(cs models.CandleSeries) (*Series, Snapshot, error) {
	n := len(cs.Candles)
	if need := p.MinCandles(); n < need {
		return nil, Snapshot{}, fmt.Errorf("%s: %d candles, need %d: %w",
			cs.Symbol, n, need, models.ErrInsufficientData)
	}

	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, c := range cs.Candles {
		high[i], low[i], closes[i], volume[i] = c.High, c.Low, c.Close, c.Volume
	}

	s := &Series{
		Symbol:    cs.Symbol,
		Timeframe: cs.Timeframe,
		Candles:   cs.Candles,
	}

	s.EMAFast = maskWarmup(talib.Ema(closes, p.p.EMAFast), p.p.EMAFast-1)
	s.EMASlow = maskWarmup(talib.Ema(closes, p.p.EMASlow), p.p.EMASlow-1)
	s.EMATrend = maskWarmup(talib.Ema(closes, p.p.EMATrend), p.p.EMATrend-1)
	s.RSI = maskWarmup(talib.Rsi(closes, p.p.RSIPeriod), p.p.RSIPeriod)
	s.ATR = maskWarmup(talib.Atr(high, low, closes, p.p.ATRPeriod), p.p.ATRPeriod)
	s.ADX = maskWarmup(talib.Adx(high, low, closes, p.p.ADXPeriod), 2*p.p.ADXPeriod-1)
	s.OBV = talib.Obv(closes, volume)

	// MACD собираем из двух EMA: сигнальная EMA сидится только по
	// определённым значениям линии, без нулей прогрева.
	fast := talib.Ema(closes, p.p.MACDFast)
	slow := talib.Ema(closes, p.p.MACDSlow)
	macdFrom := p.p.MACDSlow - 1
	macd := make([]float64, n)
	for i := range macd {
		macd[i] = fast[i] - slow[i]
	}
	s.MACD = maskWarmup(macd, macdFrom)
	s.MACDSignal = shiftedEMA(s.MACD, macdFrom, p.p.MACDSignal, talib.Ema)

	stATR := talib.Atr(high, low, closes, p.p.SupertrendPeriod)
	s.Supertrend = supertrendUp(high, low, closes, stATR, p.p.SupertrendPeriod, p.p.SupertrendMultiplier)

	return s, s.At(-1), nil
}
