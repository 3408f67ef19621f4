package models

import "time"

// Candle — одна закрытая OHLCV свеча.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Bullish — close выше open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Bearish — close ниже open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Body — размер тела свечи.
func (c Candle) Body() float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// UpperWick — верхняя тень.
func (c Candle) UpperWick() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	return c.High - top
}

// LowerWick — нижняя тень.
func (c Candle) LowerWick() float64 {
	bottom := c.Open
	if c.Close < bottom {
		bottom = c.Close
	}
	return bottom - c.Low
}

// CandleSeries — окно свечей одного инструмента, по возрастанию времени.
type CandleSeries struct {
	Symbol    string
	Timeframe string
	Candles   []Candle
}

func (s CandleSeries) Len() int { return len(s.Candles) }
