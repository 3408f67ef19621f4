package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"setup_scanner/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.URL, srv.Client())
}

func TestGetCandles_ReversesAndDropsUnconfirmed(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/market/candles" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"code":"0","msg":"","data":[
			["1700028800000","103","104","102","103.5","12","0","0","0"],
			["1700014400000","102","103","101","102.5","11","0","0","1"],
			["1700000000000","101","102","100","101.5","10","0","0","1"]
		]}`))
	})

	got, err := c.GetCandles(context.Background(), "BTC-USDT", "4h", 300)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if gotQuery != "bar=4H&instId=BTC-USDT&limit=300" {
		t.Errorf("query = %s", gotQuery)
	}
	if len(got) != 2 {
		t.Fatalf("candles = %d, want 2 (unconfirmed dropped)", len(got))
	}
	if !got[0].Time.Before(got[1].Time) {
		t.Error("candles must be ascending by time")
	}
	want := models.Candle{
		Time: time.UnixMilli(1700000000000).UTC(),
		Open: 101, High: 102, Low: 100, Close: 101.5, Volume: 10,
	}
	if got[0] != want {
		t.Errorf("first = %+v, want %+v", got[0], want)
	}
}

func TestGetCandles_LimitCapped(t *testing.T) {
	var limit string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"code":"0","data":[]}`))
	})
	if _, err := c.GetCandles(context.Background(), "ETH-USDT", "4H", 1000); err != nil {
		t.Fatal(err)
	}
	if limit != "300" {
		t.Errorf("limit = %s, want 300", limit)
	}
}

func TestGetCandles_Errors(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"okx code", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code":`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.h)
			_, err := c.GetCandles(context.Background(), "NOPE-USDT", "4H", 10)
			if !errors.Is(err, models.ErrDataSource) {
				t.Fatalf("err = %v, want ErrDataSource", err)
			}
		})
	}
}

func TestGetCandles_BadBar(t *testing.T) {
	c := NewClientWithHTTP("http://127.0.0.1:0", nil)
	if _, err := c.GetCandles(context.Background(), "BTC-USDT", "7h", 10); err == nil {
		t.Fatal("unsupported bar must fail before any request")
	}
}

func TestGet_DelayHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})
	c.delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.GetCandles(ctx, "BTC-USDT", "4H", 10); !errors.Is(err, models.ErrDataSource) {
		t.Fatalf("err = %v", err)
	}
}

func TestTopVolatile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("instType") != "SWAP" {
			t.Errorf("instType = %s", r.URL.Query().Get("instType"))
		}
		_, _ = w.Write([]byte(`{"code":"0","data":[
			{"instId":"BTC-USDT-SWAP","last":"100","high24h":"102","low24h":"98"},
			{"instId":"PEPE-USDT-SWAP","last":"1","high24h":"1.3","low24h":"0.9"},
			{"instId":"ETH-USD-SWAP","last":"10","high24h":"15","low24h":"5"},
			{"instId":"DOGE-USDT-SWAP","last":"0","high24h":"1","low24h":"0"},
			{"instId":"SOL-USDT-SWAP","last":"50","high24h":"55","low24h":"45"}
		]}`))
	})

	got, err := c.TopVolatile(context.Background(), "SWAP", "-USDT-SWAP", 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"PEPE-USDT-SWAP", "SOL-USDT-SWAP"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLiveInstruments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/public/instruments" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"code":"0","data":[
			{"instId":"BTC-USDT","state":"live"},
			{"instId":"OLD-USDT","state":"suspend"}
		]}`))
	})

	got, err := c.LiveInstruments(context.Background(), "SPOT")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got["BTC-USDT"]; !ok || len(got) != 1 {
		t.Fatalf("got %v", got)
	}
}

func TestOkxBar(t *testing.T) {
	tests := map[string]string{"4h": "4H", "4H": "4H", "1h": "1H", "15m": "15m", "1d": "1D"}
	for in, want := range tests {
		got, err := okxBar(in)
		if err != nil || got != want {
			t.Errorf("okxBar(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}
