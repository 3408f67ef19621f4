package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	webhookURLENV     = "TELEGRAM_WEBHOOK_URL"
	databaseDSN       = "DATABASE_DSN"
	redisAddrENV      = "REDIS_ADDR"

	defaultConfigFile = "values_local.yaml"
)

// Config ...
type Config struct {
	Telegram   Telegram   `yaml:"telegram"`
	DB         string     `yaml:"db_dsn"`
	Service    Service    `yaml:"service"`
	Log        Log        `yaml:"log"`
	OKX        OKX        `yaml:"okx"`
	Universe   Universe   `yaml:"universe"`
	Scanner    Scanner    `yaml:"scanner"`
	Indicators Indicators `yaml:"indicators"`
	Setups     Setups     `yaml:"setups"`
	Dedup      Dedup      `yaml:"dedup"`
	Alert      Alert      `yaml:"alert"`
	Market     Market     `yaml:"market"`
	Kafka      Kafka      `yaml:"kafka"`
	Tracing    Tracing    `yaml:"tracing"`
}

type Telegram struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
	// polling | webhook | off (off — алерты пишутся в лог)
	Mode       string        `yaml:"mode" default:"polling" validate:"oneof=polling webhook off"`
	WebhookURL string        `yaml:"webhook_url" validate:"required_if=Mode webhook"`
	Timeout    time.Duration `yaml:"timeout" default:"10s"`
}

type Service struct {
	Name       string `yaml:"name" default:"setup-scanner"`
	Host       string `yaml:"host"`
	PublicPort int    `yaml:"public_port" default:"8080" validate:"min=1,max=65535"`
}

type Log struct {
	Level       string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

type OKX struct {
	BaseURL string        `yaml:"base_url" default:"https://www.okx.com" validate:"url"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
	// пауза перед каждым запросом свечей, чтобы не словить rate limit
	RequestDelay time.Duration `yaml:"request_delay" default:"100ms"`
}

type Universe struct {
	Provider     string        `yaml:"provider" default:"coingecko" validate:"oneof=coingecko okx"`
	TopN         int           `yaml:"top_n" default:"100" validate:"min=1"`
	Quote        string        `yaml:"quote" default:"USDT"`
	CoinGeckoURL string        `yaml:"coingecko_url" default:"https://api.coingecko.com/api/v3" validate:"url"`
	CachePath    string        `yaml:"cache_path" default:"data/cache_top_coins.json"`
	CacheTTL     time.Duration `yaml:"cache_ttl" default:"24h"`
	Fallback     []string      `yaml:"fallback" default:"[\"BTC\",\"ETH\",\"OKB\"]"`
}

type Scanner struct {
	Interval        time.Duration `yaml:"interval" default:"15m"`
	Timeframe       string        `yaml:"timeframe" default:"4H"`
	CandleLimit     int           `yaml:"candle_limit" default:"300" validate:"min=200,max=300"`
	Concurrency     int           `yaml:"concurrency" default:"8" validate:"min=1,max=64"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" default:"10s"`
	FetchRetries    int           `yaml:"fetch_retries" default:"1" validate:"min=0,max=3"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout" default:"10s"`
	StartActive     bool          `yaml:"start_active" default:"true"`
}

type Indicators struct {
	EMAFast              int     `yaml:"ema_fast" default:"9" validate:"min=1"`
	EMASlow              int     `yaml:"ema_slow" default:"21" validate:"gtfield=EMAFast"`
	EMATrend             int     `yaml:"ema_trend" default:"200" validate:"gtfield=EMASlow"`
	RSIPeriod            int     `yaml:"rsi_period" default:"14" validate:"min=2"`
	ATRPeriod            int     `yaml:"atr_period" default:"14" validate:"min=1"`
	ADXPeriod            int     `yaml:"adx_period" default:"14" validate:"min=2"`
	MACDFast             int     `yaml:"macd_fast" default:"12" validate:"min=2"`
	MACDSlow             int     `yaml:"macd_slow" default:"26" validate:"gtfield=MACDFast"`
	MACDSignal           int     `yaml:"macd_signal" default:"9" validate:"min=1"`
	SupertrendPeriod     int     `yaml:"supertrend_period" default:"10" validate:"min=1"`
	SupertrendMultiplier float64 `yaml:"supertrend_multiplier" default:"3" validate:"gt=0"`
}

type Setups struct {
	RigorousRSIMax     float64 `yaml:"rigorous_rsi_max" default:"40"`
	RigorousADXMin     float64 `yaml:"rigorous_adx_min" default:"20"`
	RigorousVolumeMult float64 `yaml:"rigorous_volume_mult" default:"1.5"`
	IntermediateRSIMax float64 `yaml:"intermediate_rsi_max" default:"50"`
	IntermediateADXMin float64 `yaml:"intermediate_adx_min" default:"15"`
	LightADXMin        float64 `yaml:"light_adx_min" default:"15"`
	LightMinHits       int     `yaml:"light_min_hits" default:"2" validate:"min=1,max=3"`
	ConfluenceRSIMax   float64 `yaml:"confluence_rsi_max" default:"40"`
	ConfluenceADXMin   float64 `yaml:"confluence_adx_min" default:"20"`
	ConfluenceMinHits  int     `yaml:"confluence_min_hits" default:"6" validate:"min=1,max=10"`
	BreakoutRSIMin     float64 `yaml:"breakout_rsi_min" default:"55"`
	BreakoutLookback   int     `yaml:"breakout_lookback" default:"9" validate:"min=1"`
}

type Dedup struct {
	Backend     string        `yaml:"backend" default:"file" validate:"oneof=file sqlite postgres redis memory"`
	Cooldown    time.Duration `yaml:"cooldown" default:"1h"`
	FilePath    string        `yaml:"file_path" default:"data/alerts_sent.json"`
	SQLitePath  string        `yaml:"sqlite_path" default:"data/alerts_sent.db"`
	RedisAddr   string        `yaml:"redis_addr" default:"localhost:6379"`
	RedisPass   string        `yaml:"redis_password"`
	RedisDB     int           `yaml:"redis_db"`
	RedisPrefix string        `yaml:"redis_prefix" default:"scanner:"`
	Timeout     time.Duration `yaml:"timeout" default:"5s"`
}

type Alert struct {
	Precision  int32   `yaml:"precision" default:"4" validate:"min=0,max=12"`
	StopATR    float64 `yaml:"stop_atr" default:"1.5" validate:"gt=0"`
	TargetATR  float64 `yaml:"target_atr" default:"3" validate:"gt=0"`
	TZOffset   int     `yaml:"tz_offset_hours" default:"-3" validate:"min=-12,max=14"`
	TZLabel    string  `yaml:"tz_label" default:"Brasília"`
	ChartURL   string  `yaml:"chart_url" default:"https://www.tradingview.com/chart/?symbol=OKX:%s"`
	ParseMode  string  `yaml:"parse_mode" default:"Markdown"`
	MarketInfo bool    `yaml:"market_info" default:"true"`
}

type Market struct {
	GlobalURL    string        `yaml:"global_url" default:"https://api.coingecko.com/api/v3/global"`
	FearGreedURL string        `yaml:"fear_greed_url" default:"https://api.alternative.me/fng/?limit=1"`
	Timeout      time.Duration `yaml:"timeout" default:"5s"`
	CacheTTL     time.Duration `yaml:"cache_ttl" default:"5m"`
	Events       []MacroEvent  `yaml:"events" validate:"dive"`
}

// MacroEvent: событие календаря, дата в формате 2006-01-02 (UTC).
type MacroEvent struct {
	Date  string `yaml:"date" validate:"datetime=2006-01-02"`
	Title string `yaml:"title"`
}

type Kafka struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic   string   `yaml:"topic" default:"scanner.alerts"`
}

type Tracing struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host" default:"localhost"`
	Port    int    `yaml:"port" default:"6831"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	if !strings.ContainsRune(configFileName, filepath.Separator) {
		configFileName = filepath.Join("configs", configFileName)
	}

	file, err := os.Open(configFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	cfg, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", configFileName, err)
	}
	return cfg, nil
}

// Parse применяет дефолты, yaml, переменные окружения и валидирует результат.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}

	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	applyEnv(&cfg)

	v := validator.New()
	v.RegisterStructValidation(validateTelegram, Telegram{})
	if err := v.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// validateTelegram: бот поднимается при токене и mode != off, и тогда без
// chat_id алерты уходили бы в никуда.
func validateTelegram(sl validator.StructLevel) {
	tg := sl.Current().Interface().(Telegram)
	if tg.Mode != "off" && tg.Token != "" && tg.ChatID == 0 {
		sl.ReportError(tg.ChatID, "ChatID", "chat_id", "required_with_token", "")
	}
}

func applyEnv(cfg *Config) {
	cfg.Telegram.Token = getenvDefault(tokenTelegramENV, cfg.Telegram.Token)
	cfg.Telegram.WebhookURL = getenvDefault(webhookURLENV, cfg.Telegram.WebhookURL)
	cfg.Telegram.ChatID = int64FromEnv(chatTelegramENV, cfg.Telegram.ChatID)
	cfg.DB = getenvDefault(databaseDSN, cfg.DB)
	cfg.Dedup.RedisAddr = getenvDefault(redisAddrENV, cfg.Dedup.RedisAddr)

	cfg.Scanner.StartActive = boolFromEnv("SCANNER_START_ACTIVE", cfg.Scanner.StartActive)
	cfg.Scanner.Interval = durationFromEnv("SCANNER_INTERVAL", cfg.Scanner.Interval)
	cfg.Universe.TopN = intFromEnv("UNIVERSE_TOP_N", cfg.Universe.TopN)
	cfg.Log.Level = getenvDefault("LOG_LEVEL", cfg.Log.Level)
}

func int64FromEnv(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
