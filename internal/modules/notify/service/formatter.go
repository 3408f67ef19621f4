package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"setup_scanner/internal/models"
)

// MarketInfo: макро-блок в конце алерта. Не должен блокировать отправку.
type MarketInfo interface {
	Summary(ctx context.Context) string
	EventsToday(now time.Time) string
}

type FormatConfig struct {
	TZOffset   int // часы относительно UTC
	TZLabel    string
	StopATR    float64
	TargetATR  float64
	MarketInfo bool
}

// Formatter превращает Alert в Markdown-текст для чата.
type Formatter struct {
	cfg    FormatConfig
	market MarketInfo
	zone   *time.Location
}

func NewFormatter(cfg FormatConfig, market MarketInfo) *Formatter {
	if cfg.TZLabel == "" {
		cfg.TZLabel = "UTC"
	}
	return &Formatter{
		cfg:    cfg,
		market: market,
		zone:   time.FixedZone(cfg.TZLabel, cfg.TZOffset*3600),
	}
}

func (f *Formatter) Format(ctx context.Context, a models.Alert) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s *%s*\n", a.Setup.Emoji, a.Setup.Label)
	fmt.Fprintf(&b, "%s\n\n", a.Setup.Priority)
	fmt.Fprintf(&b, "📊 Pair: `%s`\n", a.Symbol)
	fmt.Fprintf(&b, "💰 Price: `%s`\n", num(a.Price))
	fmt.Fprintf(&b, "🛑 Stop: `%s` (%sx ATR)\n", num(a.Stop), num(f.cfg.StopATR))
	fmt.Fprintf(&b, "🎯 Target: `%s` (%sx ATR)\n", num(a.Target), num(f.cfg.TargetATR))
	fmt.Fprintf(&b, "📈 RSI: %.2f | ADX: %.2f\n", a.RSI, a.ADX)
	fmt.Fprintf(&b, "📏 ATR: %.4f | Volume: %.2f\n", a.ATR, a.Volume)
	fmt.Fprintf(&b, "🕘 %s\n", f.Timestamp(a.GeneratedAt))
	if a.ChartURL != "" {
		fmt.Fprintf(&b, "📉 [Open chart](%s)\n", a.ChartURL)
	}

	if !f.cfg.MarketInfo || f.market == nil {
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString("\n")
	if ev := f.market.EventsToday(a.GeneratedAt); ev != "" {
		b.WriteString(ev)
		b.WriteString("\n\n")
	}
	b.WriteString(f.market.Summary(ctx))
	return b.String()
}

// Timestamp: время алерта в настроенной зоне, например "14/10/2026 09:00 (Brasília)".
func (f *Formatter) Timestamp(t time.Time) string {
	return t.In(f.zone).Format("02/01/2006 15:04") + " (" + f.cfg.TZLabel + ")"
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
