package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"setup_scanner/internal/models"
)

// instrumentSource: проверка, что пара реально торгуется на OKX.
type instrumentSource interface {
	LiveInstruments(ctx context.Context, instType string) (map[string]struct{}, error)
}

type CoinGeckoConfig struct {
	BaseURL   string
	Quote     string
	CachePath string
	CacheTTL  time.Duration
	Fallback  []string
	Timeout   time.Duration
}

// CoinGecko: топ по капитализации с кэшем на диске. При любой ошибке
// отдаёт список Fallback.
type CoinGecko struct {
	cfg  CoinGeckoConfig
	http *http.Client
	inst instrumentSource
	log  *zap.Logger
	now  func() time.Time
}

func NewCoinGecko(cfg CoinGeckoConfig, inst instrumentSource, log *zap.Logger) *CoinGecko {
	if cfg.Quote == "" {
		cfg.Quote = "USDT"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if len(cfg.Fallback) == 0 {
		cfg.Fallback = []string{"BTC", "ETH", "OKB"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CoinGecko{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		inst: inst,
		log:  log.Named("universe"),
		now:  time.Now,
	}
}

func (g *CoinGecko) Name() string { return "coingecko" }

type coinCache struct {
	Timestamp float64  `json:"timestamp"` // unix, секунды
	Coins     []string `json:"coins"`
}

func (g *CoinGecko) TopAssets(ctx context.Context, n int) ([]string, error) {
	coins, ok := g.readCache(n)
	if !ok {
		var err error
		coins, err = g.fetch(ctx, n)
		if err != nil {
			g.log.Error("coingecko top coins, using fallback", zap.Error(err))
			coins = g.cfg.Fallback
		} else {
			g.writeCache(coins)
		}
	}
	return g.toInstIDs(ctx, coins), nil
}

func (g *CoinGecko) readCache(n int) ([]string, bool) {
	if g.cfg.CachePath == "" {
		return nil, false
	}
	b, err := os.ReadFile(g.cfg.CachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			g.log.Warn("read coin cache", zap.Error(err))
		}
		return nil, false
	}
	var c coinCache
	if err := sonic.Unmarshal(b, &c); err != nil {
		g.log.Warn("decode coin cache", zap.Error(err))
		return nil, false
	}
	age := g.now().Sub(time.Unix(0, int64(c.Timestamp*float64(time.Second))))
	if age >= g.cfg.CacheTTL || len(c.Coins) < n {
		return nil, false
	}
	return c.Coins[:n], true
}

func (g *CoinGecko) writeCache(coins []string) {
	if g.cfg.CachePath == "" {
		return
	}
	b, err := sonic.Marshal(coinCache{
		Timestamp: float64(g.now().UnixNano()) / float64(time.Second),
		Coins:     coins,
	})
	if err == nil {
		if dir := filepath.Dir(g.cfg.CachePath); dir != "." {
			err = os.MkdirAll(dir, 0o755)
		}
	}
	if err == nil {
		err = os.WriteFile(g.cfg.CachePath, b, 0o644)
	}
	if err != nil {
		g.log.Warn("write coin cache", zap.Error(err))
	}
}

func (g *CoinGecko) fetch(ctx context.Context, n int) ([]string, error) {
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(n))
	q.Set("page", "1")
	q.Set("sparkline", "false")

	u := strings.TrimRight(g.cfg.BaseURL, "/") + "/coins/markets?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: coingecko: %v", models.ErrDataSource, err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: coingecko http %d: %s", models.ErrDataSource, resp.StatusCode, string(b))
	}

	var rows []struct {
		Symbol string `json:"symbol"`
	}
	if err := sonic.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("%w: coingecko decode: %v", models.ErrDataSource, err)
	}

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Symbol != "" {
			out = append(out, strings.ToUpper(r.Symbol))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: coingecko: empty list", models.ErrDataSource)
	}
	return out, nil
}

// toInstIDs переводит символы в OKX instId и выкидывает пары, которых нет
// на бирже (стейблы, обёрнутые токены). Если список OKX недоступен —
// оставляем всё как есть.
func (g *CoinGecko) toInstIDs(ctx context.Context, coins []string) []string {
	var live map[string]struct{}
	if g.inst != nil {
		var err error
		live, err = g.inst.LiveInstruments(ctx, "SPOT")
		if err != nil {
			g.log.Warn("okx instruments, skipping filter", zap.Error(err))
			live = nil
		}
	}

	quote := strings.ToUpper(g.cfg.Quote)
	out := make([]string, 0, len(coins))
	seen := make(map[string]struct{}, len(coins))
	for _, c := range coins {
		if strings.EqualFold(c, quote) {
			continue
		}
		id := InstID(c, quote)
		if _, dup := seen[id]; dup {
			continue
		}
		if live != nil {
			if _, ok := live[id]; !ok {
				continue
			}
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
