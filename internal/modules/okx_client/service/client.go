package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"setup_scanner/internal/models"
	"setup_scanner/internal/modules/config"
)

const DefaultBaseURL = "https://www.okx.com"

// Client: публичный REST OKX (market/public), без ключей.
type Client struct {
	baseURL string
	http    *http.Client
	delay   time.Duration
}

func NewClient(cfg *config.Config) *Client {
	c := NewClientWithHTTP(cfg.OKX.BaseURL, &http.Client{Timeout: cfg.OKX.Timeout})
	c.delay = cfg.OKX.RequestDelay
	return c
}

func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// envelope: общий конверт ответов OKX v5.
type envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

// get выполняет GET и раскладывает data. Любая ошибка — models.ErrDataSource.
func get[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	if c.delay > 0 {
		// OKX режет по rate limit, шаг между запросами
		t := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("%w: %v", models.ErrDataSource, ctx.Err())
		case <-t.C:
		}
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", models.ErrDataSource, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrDataSource, path, err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: %s: http %d: %s", models.ErrDataSource, path, resp.StatusCode, string(b))
	}

	var r envelope[T]
	if err := sonic.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %v", models.ErrDataSource, path, err)
	}
	if r.Code != "0" {
		return nil, fmt.Errorf("%w: %s: okx code=%s msg=%s", models.ErrDataSource, path, r.Code, r.Msg)
	}
	return r.Data, nil
}
