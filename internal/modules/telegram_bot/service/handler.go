package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	replyActivated = "✅ *Scanner activated!*"
	replyPaused    = "🛑 *Scanner paused!*"
)

func (t *Telegram) handleUpdate(_ context.Context, update tgbot.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	// команды принимаем только из своего чата
	chatID := msg.Chat.ID
	if chatID != t.cfg.ChatID {
		t.log.Debug("foreign chat ignored", zap.Int64("chat", chatID))
		return
	}
	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		t.sw.Activate()
		t.log.Info("scanner activated by command")
		t.reply(chatID, replyActivated)
	case "stop":
		t.sw.Pause()
		t.log.Info("scanner paused by command")
		t.reply(chatID, replyPaused)
	case "status":
		t.reply(chatID, t.statusText())
	default:
		// остальное молча игнорируем
	}
}

func (t *Telegram) statusText() string {
	st := t.sw.Status()

	var b strings.Builder
	b.WriteString("📊 *Current status:* ")
	if st.Active {
		b.WriteString("✅ Active")
	} else {
		b.WriteString("⛔️ Inactive")
	}

	last := st.LastCycle
	if !last.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "\nLast cycle: %s UTC, scanned %d, sent %d",
			last.FinishedAt.UTC().Format(time.DateTime), last.Scanned, last.Sent)
	}
	return b.String()
}

// WebhookHandler принимает апдейты от Telegram. Всегда отвечает 200,
// иначе Telegram будет повторять доставку.
func (t *Telegram) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			w.WriteHeader(http.StatusOK)
			return
		}

		var upd tgbot.Update
		if err := sonic.Unmarshal(body, &upd); err != nil {
			t.log.Warn("bad webhook payload", zap.Error(err))
			w.WriteHeader(http.StatusOK)
			return
		}

		t.handleUpdate(r.Context(), upd)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
