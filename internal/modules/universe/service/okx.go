package service

import (
	"context"
	"strings"
)

// volatileSource: часть okx_client, нужная провайдеру.
type volatileSource interface {
	TopVolatile(ctx context.Context, instType, suffix string, n int) ([]string, error)
}

// OkxWatchlist: самые волатильные USDT-перпетуалы OKX за 24ч.
type OkxWatchlist struct {
	mx    volatileSource
	quote string
}

func NewOkxWatchlist(mx volatileSource, quote string) *OkxWatchlist {
	if quote == "" {
		quote = "USDT"
	}
	return &OkxWatchlist{mx: mx, quote: strings.ToUpper(quote)}
}

func (w *OkxWatchlist) Name() string { return "okx" }

func (w *OkxWatchlist) TopAssets(ctx context.Context, n int) ([]string, error) {
	return w.mx.TopVolatile(ctx, "SWAP", "-"+w.quote+"-SWAP", n)
}
