package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	NoMarketData      = "*⚠️ Market cap and BTC dominance data unavailable right now.*"
	NoFundamentalData = "*⚠️ Fundamental data unavailable right now.*"
)

type Event struct {
	Date  string // 2006-01-02, UTC
	Title string
}

type Config struct {
	GlobalURL    string
	FearGreedURL string
	Timeout      time.Duration
	CacheTTL     time.Duration
	Events       []Event
}

// Context: фон рынка для алерта. Ошибки никогда не наружу: вместо
// сводки отдаётся строка-заглушка.
type Context struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
	p    *message.Printer

	mu       sync.Mutex
	cached   string
	cachedAt time.Time
	now      func() time.Time
}

func New(cfg Config, log *zap.Logger) *Context {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.Named("market"),
		p:    message.NewPrinter(language.English),
		now:  time.Now,
	}
}

type globalResp struct {
	Data struct {
		TotalMarketCap      map[string]float64 `json:"total_market_cap"`
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
	} `json:"data"`
}

type fngResp struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
	} `json:"data"`
}

// Summary: капитализация, доминация BTC и индекс страха/жадности.
func (c *Context) Summary(ctx context.Context) string {
	c.mu.Lock()
	if c.cached != "" && c.cfg.CacheTTL > 0 && c.now().Sub(c.cachedAt) < c.cfg.CacheTTL {
		s := c.cached
		c.mu.Unlock()
		return s
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var g globalResp
	if err := c.getJSON(ctx, c.cfg.GlobalURL, &g); err != nil {
		c.log.Warn("global market data", zap.Error(err))
		return NoFundamentalData
	}
	mcap, ok1 := g.Data.TotalMarketCap["usd"]
	dom, ok2 := g.Data.MarketCapPercentage["btc"]
	if !ok1 || !ok2 || mcap == 0 {
		return NoMarketData
	}

	var f fngResp
	if err := c.getJSON(ctx, c.cfg.FearGreedURL, &f); err != nil || len(f.Data) == 0 {
		c.log.Warn("fear and greed index", zap.Error(err))
		return NoFundamentalData
	}

	s := c.p.Sprintf("*🌍 MARKET NOW*\n• Market cap: $%.0f\n• BTC dominance: %.1f%%\n• Fear/Greed: %s (%s)",
		mcap, dom, f.Data[0].Value, f.Data[0].ValueClassification)

	c.mu.Lock()
	c.cached, c.cachedAt = s, c.now()
	c.mu.Unlock()
	return s
}

// EventsToday: события календаря на дату now (UTC); пусто, если нет.
func (c *Context) EventsToday(now time.Time) string {
	today := now.UTC().Format("2006-01-02")
	var titles []string
	for _, e := range c.cfg.Events {
		if e.Date == today {
			titles = append(titles, e.Title)
		}
	}
	if len(titles) == 0 {
		return ""
	}
	return "*📅 Economic events today:*\n" + strings.Join(titles, "\n")
}

func (c *Context) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}
	return sonic.Unmarshal(b, out)
}
