package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap/zaptest"

	"setup_scanner/internal/models"
)

type fakeMarket struct{ events string }

func (m fakeMarket) Summary(context.Context) string { return "*🌍 MARKET NOW*" }
func (m fakeMarket) EventsToday(time.Time) string   { return m.events }

func sampleAlert() models.Alert {
	return models.Alert{
		CycleID:     "c-1",
		Symbol:      "BTC-USDT",
		Timeframe:   "4H",
		Setup:       models.Setups[models.SetupHighConfluence],
		Price:       100.5,
		Stop:        97.5,
		Target:      106.5,
		RSI:         35.123,
		ADX:         25,
		ATR:         2,
		Volume:      1234.567,
		ChartURL:    "https://www.tradingview.com/chart/?symbol=OKX:BTCUSDT",
		GeneratedAt: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
	}
}

func newTestFormatter(mi MarketInfo, withMarket bool) *Formatter {
	return NewFormatter(FormatConfig{
		TZOffset:   -3,
		TZLabel:    "Brasília",
		StopATR:    1.5,
		TargetATR:  3,
		MarketInfo: withMarket,
	}, mi)
}

func TestFormat(t *testing.T) {
	got := newTestFormatter(fakeMarket{events: "*📅 Economic events today:*\nFOMC"}, true).
		Format(context.Background(), sampleAlert())

	want := "🔥 *SETUP 5 – High Confluence*\n" +
		"🟥 MAXIMUM PRIORITY\n\n" +
		"📊 Pair: `BTC-USDT`\n" +
		"💰 Price: `100.5`\n" +
		"🛑 Stop: `97.5` (1.5x ATR)\n" +
		"🎯 Target: `106.5` (3x ATR)\n" +
		"📈 RSI: 35.12 | ADX: 25.00\n" +
		"📏 ATR: 2.0000 | Volume: 1234.57\n" +
		"🕘 14/10/2026 09:00 (Brasília)\n" +
		"📉 [Open chart](https://www.tradingview.com/chart/?symbol=OKX:BTCUSDT)\n\n" +
		"*📅 Economic events today:*\nFOMC\n\n" +
		"*🌍 MARKET NOW*"
	if got != want {
		t.Fatalf("Format:\n%s\n--- want ---\n%s", got, want)
	}
}

func TestFormat_NoEventsNoMarket(t *testing.T) {
	f := newTestFormatter(fakeMarket{}, true)
	got := f.Format(context.Background(), sampleAlert())
	if strings.Contains(got, "Economic events") {
		t.Fatalf("empty events rendered: %s", got)
	}
	if !strings.HasSuffix(got, "\n\n*🌍 MARKET NOW*") {
		t.Fatalf("summary missing: %s", got)
	}

	off := newTestFormatter(fakeMarket{events: "x"}, false).Format(context.Background(), sampleAlert())
	if strings.Contains(off, "MARKET") || strings.HasSuffix(off, "\n") {
		t.Fatalf("market block with MarketInfo=false: %q", off)
	}
}

func TestTimestamp_DefaultZone(t *testing.T) {
	f := NewFormatter(FormatConfig{}, nil)
	got := f.Timestamp(time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC))
	if got != "02/01/2026 03:04 (UTC)" {
		t.Fatalf("Timestamp = %q", got)
	}
}

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (s *fakeSender) SendText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.texts = append(s.texts, text)
	return nil
}

type fakeSink struct {
	alerts []models.Alert
	err    error
}

func (s *fakeSink) Publish(_ context.Context, a models.Alert) error {
	if s.err != nil {
		return s.err
	}
	s.alerts = append(s.alerts, a)
	return nil
}

func TestDispatcher(t *testing.T) {
	tests := []struct {
		name      string
		senderErr error
		sinkErr   error
		wantErr   bool
		wantSink  int
	}{
		{name: "ok", wantSink: 1},
		{name: "sender fails", senderErr: errors.New("boom"), wantErr: true},
		{name: "sink fails is not fatal", sinkErr: errors.New("broker down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{err: tt.senderErr}
			sink := &fakeSink{err: tt.sinkErr}
			d := NewDispatcher(newTestFormatter(nil, false), []TextSender{sender}, []EventSink{sink}, zaptest.NewLogger(t))

			err := d.Dispatch(context.Background(), sampleAlert())
			if tt.wantErr {
				if !errors.Is(err, models.ErrDispatch) {
					t.Fatalf("err = %v, want ErrDispatch", err)
				}
				if len(sink.alerts) != 0 {
					t.Fatalf("sink published after failed delivery")
				}
				return
			}
			if err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if len(sender.texts) != 1 || !strings.Contains(sender.texts[0], "BTC-USDT") {
				t.Fatalf("texts = %v", sender.texts)
			}
			if len(sink.alerts) != tt.wantSink {
				t.Fatalf("sink alerts = %d, want %d", len(sink.alerts), tt.wantSink)
			}
		})
	}
}

func TestDispatcher_NoSenders(t *testing.T) {
	d := NewDispatcher(newTestFormatter(nil, false), nil, nil, nil)
	if err := d.Dispatch(context.Background(), sampleAlert()); !errors.Is(err, models.ErrDispatch) {
		t.Fatalf("err = %v", err)
	}
}

func TestStdout(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf, zaptest.NewLogger(t))
	if err := s.SendText(context.Background(), "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if buf.String() != "hello\n\n" {
		t.Fatalf("out = %q", buf.String())
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublish(t *testing.T) {
	w := &fakeWriter{}
	k := newKafkaWithWriter(w, "scanner.alerts")

	a := sampleAlert()
	if err := k.Publish(context.Background(), a); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("msgs = %d", len(w.msgs))
	}
	m := w.msgs[0]
	if string(m.Key) != "BTC-USDT" {
		t.Fatalf("key = %s", m.Key)
	}

	var back models.Alert
	if err := sonic.Unmarshal(m.Value, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Setup.ID != models.SetupHighConfluence || back.Stop != a.Stop || back.CycleID != "c-1" {
		t.Fatalf("payload = %+v", back)
	}

	w.err = errors.New("leader not available")
	if err := k.Publish(context.Background(), a); err == nil {
		t.Fatalf("want error")
	}

	if err := k.Close(); err != nil || !w.closed {
		t.Fatalf("Close: %v closed=%v", err, w.closed)
	}
}

func TestNewKafka_RequiresBrokers(t *testing.T) {
	if _, err := NewKafka(KafkaConfig{Topic: "t"}); err == nil {
		t.Fatalf("want error without brokers")
	}
	var k *Kafka
	if err := k.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}
