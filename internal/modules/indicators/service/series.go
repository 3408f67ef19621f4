package service

import (
	"math"
	"time"

	"setup_scanner/internal/models"
)

// Series — свечи плюс колонка на каждый индикатор. Строки прогрева = NaN.
type Series struct {
	Symbol    string
	Timeframe string
	Candles   []models.Candle

	EMAFast    []float64
	EMASlow    []float64
	EMATrend   []float64
	RSI        []float64
	ATR        []float64
	MACD       []float64
	MACDSignal []float64
	ADX        []float64
	OBV        []float64
	Supertrend []bool // true — тренд вверх
}

// Snapshot — значения одной строки серии. Собирается один раз,
// правила читают поля, а не индексы.
type Snapshot struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	EMAFast      float64
	EMASlow      float64
	EMATrend     float64
	RSI          float64
	ATR          float64
	MACD         float64
	MACDSignal   float64
	ADX          float64
	OBV          float64
	SupertrendUp bool
}

func (s *Series) Len() int { return len(s.Candles) }

// At собирает Snapshot строки i; i < 0 считается с конца (-1 — последняя).
func (s *Series) At(i int) Snapshot {
	if i < 0 {
		i += len(s.Candles)
	}
	c := s.Candles[i]
	return Snapshot{
		Time:         c.Time,
		Open:         c.Open,
		High:         c.High,
		Low:          c.Low,
		Close:        c.Close,
		Volume:       c.Volume,
		EMAFast:      at(s.EMAFast, i),
		EMASlow:      at(s.EMASlow, i),
		EMATrend:     at(s.EMATrend, i),
		RSI:          at(s.RSI, i),
		ATR:          at(s.ATR, i),
		MACD:         at(s.MACD, i),
		MACDSignal:   at(s.MACDSignal, i),
		ADX:          at(s.ADX, i),
		OBV:          at(s.OBV, i),
		SupertrendUp: i < len(s.Supertrend) && s.Supertrend[i],
	}
}

// Candle возвращает свечу i (отрицательный индекс — с конца).
func (s *Series) Candle(i int) models.Candle {
	if i < 0 {
		i += len(s.Candles)
	}
	return s.Candles[i]
}

func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}

// MeanVolume — среднее объёма по всему окну.
func (s *Series) MeanVolume() float64 { return Mean(s.Volumes()) }

func (s *Series) MeanOBV() float64 { return Mean(s.OBV) }

func (s *Series) MeanATR() float64 { return Mean(s.ATR) }

// HighestHigh — максимум high за n свечей, предшествующих последней.
func (s *Series) HighestHigh(n int) float64 {
	end := len(s.Candles) - 1
	start := end - n
	if start < 0 {
		start = 0
	}
	hi := math.Inf(-1)
	for _, c := range s.Candles[start:end] {
		if c.High > hi {
			hi = c.High
		}
	}
	return hi
}

func at(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return math.NaN()
	}
	return xs[i]
}
