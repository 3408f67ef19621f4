package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"setup_scanner/internal/models"
	scanner "setup_scanner/internal/modules/scanner/service"
)

const (
	defaultWebhookPath = "/telegram"
	defaultRetryEvery  = 30 * time.Second
)

// Switch: то, чем управляют команды /start /stop /status.
type Switch interface {
	Activate()
	Pause()
	Status() scanner.Status
}

type Config struct {
	Token      string
	ChatID     int64
	Mode       string // polling | webhook
	WebhookURL string
	ParseMode  string
	Timeout    time.Duration

	// пауза между попытками подключиться, если Telegram недоступен на старте
	RetryEvery time.Duration

	// шаблон как у tgbot.APIEndpoint, подменяется в тестах
	Endpoint string
}

// Telegram: доставка алертов в один чат и приём управляющих команд из него же.
type Telegram struct {
	cfg Config
	sw  Switch
	log *zap.Logger

	mu      sync.Mutex
	bot     *tgbot.BotAPI
	polling bool

	stopOnce sync.Once
	done     chan struct{}
}

// NewTelegram не ходит в сеть: getMe выполняется при первой отправке или в Start.
func NewTelegram(cfg Config, sw Switch, log *zap.Logger) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram: empty token")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = tgbot.APIEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryEvery <= 0 {
		cfg.RetryEvery = defaultRetryEvery
	}

	return &Telegram{
		cfg:  cfg,
		sw:   sw,
		log:  log.Named("telegram"),
		done: make(chan struct{}),
	}, nil
}

// api возвращает клиента, подключаясь при первом вызове. Неудачная попытка
// не запоминается, следующий вызов пробует снова.
func (t *Telegram) api() (*tgbot.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	b, err := tgbot.NewBotAPIWithClient(t.cfg.Token, t.cfg.Endpoint, &http.Client{Timeout: t.cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}
	t.bot = b
	return b, nil
}

// SendText отправляет текст в настроенный чат. nil-получатель ничего не делает.
func (t *Telegram) SendText(ctx context.Context, text string) error {
	if t == nil {
		return nil
	}
	if t.cfg.ChatID == 0 {
		return fmt.Errorf("%w: telegram: chat id is not configured", models.ErrDispatch)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: telegram: %v", models.ErrDispatch, err)
	}

	msg := tgbot.NewMessage(t.cfg.ChatID, text)
	msg.ParseMode = t.cfg.ParseMode
	msg.DisableWebPagePreview = true

	// bot.Send не принимает ctx, поэтому ждём в select
	errCh := make(chan error, 1)
	go func() {
		bot, err := t.api()
		if err == nil {
			_, err = bot.Send(msg)
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%w: telegram: %v", models.ErrDispatch, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: telegram: %v", models.ErrDispatch, ctx.Err())
	}
}

func (t *Telegram) reply(chatID int64, text string) {
	bot, err := t.api()
	if err != nil {
		t.log.Warn("reply skipped", zap.Int64("chat", chatID), zap.Error(err))
		return
	}
	msg := tgbot.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := bot.Send(msg); err != nil {
		t.log.Warn("reply failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// WebhookPath: путь, на который Telegram шлёт апдейты. Последний сегмент
// всегда токен бота, чужой POST без него до обработчика не дойдёт.
func (t *Telegram) WebhookPath() string {
	p := defaultWebhookPath
	if u, err := url.Parse(t.cfg.WebhookURL); err == nil && strings.Trim(u.Path, "/") != "" {
		p = "/" + strings.Trim(u.Path, "/")
	}
	if strings.HasSuffix(p, "/"+t.cfg.Token) {
		return p
	}
	return p + "/" + t.cfg.Token
}

// webhookURL: адрес для setWebhook с тем же путём, что и WebhookPath.
func (t *Telegram) webhookURL() (string, error) {
	u, err := url.Parse(t.cfg.WebhookURL)
	if err != nil {
		return "", err
	}
	u.Path = t.WebhookPath()
	u.RawPath = ""
	return u.String(), nil
}

// Start запускает приём команд: регистрацию webhook либо long polling.
// Если Telegram сейчас недоступен, пробует снова в фоне раз в RetryEvery;
// сканер при этом продолжает работать.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if err := t.connect(ctx); err != nil {
		t.log.Warn("telegram unavailable, retrying in background", zap.Error(err))
		go t.retryConnect(ctx)
	}
	return nil
}

func (t *Telegram) retryConnect(ctx context.Context) {
	tick := time.NewTicker(t.cfg.RetryEvery)
	defer tick.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-tick.C:
			if err := t.connect(ctx); err != nil {
				t.log.Debug("telegram still unavailable", zap.Error(err))
				continue
			}
			t.log.Info("telegram connected")
			return
		}
	}
}

func (t *Telegram) connect(ctx context.Context) error {
	bot, err := t.api()
	if err != nil {
		return err
	}

	if t.cfg.Mode == "webhook" {
		link, err := t.webhookURL()
		if err != nil {
			return fmt.Errorf("telegram webhook url: %w", err)
		}
		wh, err := tgbot.NewWebhook(link)
		if err != nil {
			return fmt.Errorf("telegram webhook: %w", err)
		}
		if _, err := bot.Request(wh); err != nil {
			return fmt.Errorf("telegram setWebhook: %w", err)
		}
		// в ссылке токен, в лог её не пишем
		t.log.Info("webhook registered")
		return nil
	}

	t.mu.Lock()
	select {
	case <-t.done:
		t.mu.Unlock()
		return nil
	default:
	}
	t.polling = true
	t.mu.Unlock()

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-t.done:
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, upd)
			}
		}
	}()
	t.log.Info("polling started")
	return nil
}

func (t *Telegram) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		close(t.done)
		if t.polling && t.bot != nil {
			t.bot.StopReceivingUpdates()
		}
	})
}
