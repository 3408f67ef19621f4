package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"setup_scanner/internal/models"
)

// backend, который поднимается не с первой попытки
type dialer struct {
	down  atomic.Bool
	dials atomic.Int32
	store *MemoryStore
}

func (d *dialer) dial(context.Context) (Store, error) {
	d.dials.Add(1)
	if d.down.Load() {
		return nil, errors.New("connection refused")
	}
	return d.store, nil
}

func TestReconnectingStore_ErrorsUntilConnected(t *testing.T) {
	d := &dialer{store: NewMemoryStore()}
	d.down.Store(true)
	r := NewReconnectingStore("redis", d.dial, zaptest.NewLogger(t))
	ctx := context.Background()

	if _, err := r.Load(ctx); !errors.Is(err, models.ErrPersistence) {
		t.Fatalf("Load err = %v, want ErrPersistence", err)
	}
	if err := r.Put(ctx, models.AlertRecord{Key: key, LastSentAt: t0}); !errors.Is(err, models.ErrPersistence) {
		t.Fatalf("Put err = %v, want ErrPersistence", err)
	}
	if r.Connected() {
		t.Fatal("connected while backend is down")
	}

	d.down.Store(false)
	if err := r.Put(ctx, models.AlertRecord{Key: key, LastSentAt: t0}); err != nil {
		t.Fatalf("Put after recovery: %v", err)
	}
	if _, err := r.Load(ctx); err != nil {
		t.Fatalf("Load after recovery: %v", err)
	}
	// после успешного подключения повторно не дозваниваемся
	if n := d.dials.Load(); n != 3 {
		t.Fatalf("dials = %d, want 3", n)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDeduper_UnreachableBackendDegradesAndRecovers(t *testing.T) {
	d := &dialer{store: NewMemoryStore()}
	d.down.Store(true)
	// запись, которая лежит в backend с прошлого запуска
	_ = d.store.Put(context.Background(), models.AlertRecord{Key: key, LastSentAt: t0.Add(-10 * time.Minute)})

	dd := NewDeduper(NewReconnectingStore("redis", d.dial, zaptest.NewLogger(t)), time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	if err := dd.Load(ctx); !errors.Is(err, models.ErrPersistence) {
		t.Fatalf("Load err = %v, want ErrPersistence", err)
	}
	if !dd.Degraded() {
		t.Fatal("must be degraded")
	}

	// в памяти дедуп работает и без backend
	other := models.AlertKey{Symbol: "ETH-USDT", Setup: key.Setup}
	if !dd.IsEligible(ctx, other, t0) || dd.IsEligible(ctx, other, t0.Add(time.Minute)) {
		t.Fatal("in-memory suppression broken while degraded")
	}

	d.down.Store(false)
	dd.Recover(ctx)
	if dd.Degraded() {
		t.Fatal("Recover must reconnect and reload")
	}
	if dd.IsEligible(ctx, key, t0) {
		t.Fatal("record from backend must suppress after recovery")
	}
}
