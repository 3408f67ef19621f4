package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeInstruments struct {
	live map[string]struct{}
	err  error
}

func (f fakeInstruments) LiveInstruments(context.Context, string) (map[string]struct{}, error) {
	return f.live, f.err
}

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func markets(t *testing.T, hits *atomic.Int32, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/coins/markets" || r.URL.Query().Get("order") != "market_cap_desc" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if status != http.StatusOK {
			http.Error(w, "rate limited", status)
			return
		}
		_, _ = w.Write([]byte(`[{"symbol":"btc"},{"symbol":"eth"},{"symbol":"usdt"},{"symbol":"sol"}]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCoinGecko_FetchFilterAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := markets(t, &hits, http.StatusOK)
	cache := filepath.Join(t.TempDir(), "cache_top_coins.json")

	g := NewCoinGecko(CoinGeckoConfig{BaseURL: srv.URL, CachePath: cache},
		fakeInstruments{live: set("BTC-USDT", "ETH-USDT", "SOL-USDT")}, zaptest.NewLogger(t))

	got, err := g.TopAssets(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"BTC-USDT", "ETH-USDT", "SOL-USDT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, err := os.Stat(cache); err != nil {
		t.Fatalf("cache not written: %v", err)
	}

	// второй вызов — из кэша
	if _, err := g.TopAssets(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Fatalf("coingecko hit %d times, want 1", hits.Load())
	}

	// кэш протух через 24ч
	g.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, err := g.TopAssets(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expired cache must refetch, hits = %d", hits.Load())
	}
}

func TestCoinGecko_FallbackOnError(t *testing.T) {
	var hits atomic.Int32
	srv := markets(t, &hits, http.StatusTooManyRequests)

	g := NewCoinGecko(CoinGeckoConfig{BaseURL: srv.URL}, nil, zaptest.NewLogger(t))
	got, err := g.TopAssets(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"BTC-USDT", "ETH-USDT", "OKB-USDT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCoinGecko_InstrumentListDown(t *testing.T) {
	var hits atomic.Int32
	srv := markets(t, &hits, http.StatusOK)

	g := NewCoinGecko(CoinGeckoConfig{BaseURL: srv.URL},
		fakeInstruments{err: errors.New("okx down")}, zaptest.NewLogger(t))
	got, _ := g.TopAssets(context.Background(), 4)

	// без фильтра, но котируемая валюта всё равно выкинута
	want := []string{"BTC-USDT", "ETH-USDT", "SOL-USDT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

type fakeVolatile struct {
	instType, suffix string
	n                int
}

func (f *fakeVolatile) TopVolatile(_ context.Context, instType, suffix string, n int) ([]string, error) {
	f.instType, f.suffix, f.n = instType, suffix, n
	return []string{"PEPE-USDT-SWAP"}, nil
}

func TestOkxWatchlist(t *testing.T) {
	f := &fakeVolatile{}
	got, err := NewOkxWatchlist(f, "usdt").TopAssets(context.Background(), 50)
	if err != nil || len(got) != 1 {
		t.Fatalf("got %v, %v", got, err)
	}
	if f.instType != "SWAP" || f.suffix != "-USDT-SWAP" || f.n != 50 {
		t.Errorf("called with %+v", f)
	}
}

func TestChartSymbol(t *testing.T) {
	tests := map[string]string{
		"BTC-USDT":      "BTCUSDT",
		"eth/usdt":      "ETHUSDT",
		"BTC-USDT-SWAP": "BTCUSDT.P",
	}
	for in, want := range tests {
		if got := ChartSymbol(in); got != want {
			t.Errorf("ChartSymbol(%q) = %q, want %q", in, got, want)
		}
	}
	if InstID("sol", "usdt") != "SOL-USDT" {
		t.Error("InstID must upper-case and join with a dash")
	}
}
