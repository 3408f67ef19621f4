package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

type okxTicker struct {
	InstType  string `json:"instType"`
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	High24h   string `json:"high24h"`
	Low24h    string `json:"low24h"`
	VolCcy24h string `json:"volCcy24h"`
}

type okxInstrument struct {
	InstType string `json:"instType"`
	InstID   string `json:"instId"`
	BaseCcy  string `json:"baseCcy"`
	QuoteCcy string `json:"quoteCcy"`
	State    string `json:"state"`
}

// TopVolatile: n инструментов instType с суффиксом suffix, ранжированных
// по (high24h-low24h)/last.
func (c *Client) TopVolatile(ctx context.Context, instType, suffix string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	tickers, err := c.fetchTickers(ctx, instType)
	if err != nil {
		return nil, err
	}

	type rec struct {
		sym   string
		score float64
	}

	arr := make([]rec, 0, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.InstID, suffix) {
			continue
		}

		last, err1 := strconv.ParseFloat(t.Last, 64)
		high, err2 := strconv.ParseFloat(t.High24h, 64)
		low, err3 := strconv.ParseFloat(t.Low24h, 64)
		if err1 != nil || err2 != nil || err3 != nil || last <= 0 {
			continue
		}
		range24 := high - low
		if range24 <= 0 {
			continue
		}
		arr = append(arr, rec{sym: t.InstID, score: range24 / last})
	}

	sort.SliceStable(arr, func(i, j int) bool { return arr[i].score > arr[j].score })
	if n > len(arr) {
		n = len(arr)
	}
	res := make([]string, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, arr[i].sym)
	}
	return res, nil
}

func (c *Client) fetchTickers(ctx context.Context, instType string) ([]okxTicker, error) {
	q := url.Values{}
	q.Set("instType", instType)
	out, err := get[okxTicker](ctx, c, "/api/v5/market/tickers", q)
	if err != nil {
		return nil, fmt.Errorf("tickers %s: %w", instType, err)
	}
	return out, nil
}

// LiveInstruments: множество instId в состоянии live.
func (c *Client) LiveInstruments(ctx context.Context, instType string) (map[string]struct{}, error) {
	q := url.Values{}
	q.Set("instType", instType)
	list, err := get[okxInstrument](ctx, c, "/api/v5/public/instruments", q)
	if err != nil {
		return nil, fmt.Errorf("instruments %s: %w", instType, err)
	}
	out := make(map[string]struct{}, len(list))
	for _, in := range list {
		if in.State != "" && in.State != "live" {
			continue
		}
		out[in.InstID] = struct{}{}
	}
	return out, nil
}
