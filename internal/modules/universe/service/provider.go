package service

import (
	"context"
	"strings"
)

// Provider отдаёт n OKX instId для сканирования, в порядке приоритета.
type Provider interface {
	TopAssets(ctx context.Context, n int) ([]string, error)
	Name() string
}

// InstID собирает OKX instId спота: "btc" + "USDT" -> "BTC-USDT".
func InstID(symbol, quote string) string {
	return strings.ToUpper(symbol) + "-" + strings.ToUpper(quote)
}

// ChartSymbol: тикер для TradingView: "BTC-USDT" -> "BTCUSDT",
// "BTC-USDT-SWAP" -> "BTCUSDT.P".
func ChartSymbol(instID string) string {
	s := strings.ToUpper(instID)
	perp := strings.HasSuffix(s, "-SWAP")
	s = strings.TrimSuffix(s, "-SWAP")
	s = strings.NewReplacer("-", "", "/", "").Replace(s)
	if perp {
		s += ".P"
	}
	return s
}
