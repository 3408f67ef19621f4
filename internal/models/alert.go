package models

import (
	"strings"
	"time"
)

// AlertKey — составной ключ подавления (символ, label сетапа).
type AlertKey struct {
	Symbol string `json:"symbol"`
	Setup  string `json:"setup"`
}

// String — формат ключа в хранилище: "{symbol}_{setupLabel}".
func (k AlertKey) String() string { return k.Symbol + "_" + k.Setup }

// ParseAlertKey разбирает ключ хранилища. Символ не содержит "_" (OKX instId
// пишется через дефис), поэтому режем по первому подчёркиванию.
func ParseAlertKey(raw string) (AlertKey, bool) {
	i := strings.IndexByte(raw, '_')
	if i <= 0 || i >= len(raw)-1 {
		return AlertKey{}, false
	}
	return AlertKey{Symbol: raw[:i], Setup: raw[i+1:]}, true
}

// AlertRecord — когда по ключу последний раз разрешили отправку (UTC).
type AlertRecord struct {
	Key        AlertKey  `json:"key"`
	LastSentAt time.Time `json:"last_sent_at"`
}

// Alert — то, что уходит в диспетчер.
type Alert struct {
	CycleID     string    `json:"cycle_id"`
	Symbol      string    `json:"symbol"`
	Timeframe   string    `json:"timeframe"`
	Setup       Setup     `json:"setup"`
	Price       float64   `json:"price"`
	Stop        float64   `json:"stop"`
	Target      float64   `json:"target"`
	RSI         float64   `json:"rsi"`
	ADX         float64   `json:"adx"`
	ATR         float64   `json:"atr"`
	Volume      float64   `json:"volume"`
	ChartURL    string    `json:"chart_url"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (a Alert) Key() AlertKey { return AlertKey{Symbol: a.Symbol, Setup: a.Setup.Label} }
