package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"setup_scanner/internal/models"
)

const DefaultCooldown = time.Hour

// пред. значение ключа на время отправки, нужно для Rollback
type reservation struct {
	prev    time.Time
	existed bool
	at      time.Time
}

// Deduper: шлюз антиспама: не чаще одного алерта на (символ, сетап) за cooldown.
// Решение принимается в памяти под локом ключа, запись в Store идёт уже
// после отпускания лока.
type Deduper struct {
	store    Store
	cooldown time.Duration
	timeout  time.Duration
	log      *zap.Logger

	keysMu sync.Mutex
	keys   map[string]*sync.Mutex

	mu       sync.RWMutex
	records  map[string]models.AlertRecord
	pending  map[string]reservation
	degraded bool
}

func NewDeduper(store Store, cooldown time.Duration, log *zap.Logger) *Deduper {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Deduper{
		store:    store,
		cooldown: cooldown,
		timeout:  5 * time.Second,
		log:      log.Named("dedup"),
		keys:     make(map[string]*sync.Mutex),
		records:  make(map[string]models.AlertRecord),
		pending:  make(map[string]reservation),
	}
}

// WithTimeout задаёт таймаут одной операции со Store.
func (d *Deduper) WithTimeout(t time.Duration) *Deduper {
	if t > 0 {
		d.timeout = t
	}
	return d
}

func (d *Deduper) Cooldown() time.Duration { return d.cooldown }

// Load поднимает записи из Store. При ошибке стартуем с пустой памятью и
// помечаем состояние degraded: следующий Recover попробует снова.
func (d *Deduper) Load(ctx context.Context) error {
	recs, err := d.load(ctx)
	if err != nil {
		d.mu.Lock()
		d.degraded = true
		d.mu.Unlock()
		d.log.Error("load alert records, starting empty", zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.degraded = false
	for _, r := range recs {
		k := r.Key.String()
		// в памяти может быть более свежая отправка, сделанная в degraded-режиме
		if cur, ok := d.records[k]; ok && cur.LastSentAt.After(r.LastSentAt) {
			continue
		}
		d.records[k] = r
	}
	d.log.Info("alert records loaded", zap.Int("count", len(recs)))
	return nil
}

// Recover повторяет Load, если прошлая загрузка не удалась.
func (d *Deduper) Recover(ctx context.Context) {
	if !d.Degraded() {
		return
	}
	_ = d.Load(ctx)
}

func (d *Deduper) Degraded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.degraded
}

func (d *Deduper) load(ctx context.Context) ([]models.AlertRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.store.Load(ctx)
}

func (d *Deduper) keyLock(k string) *sync.Mutex {
	d.keysMu.Lock()
	defer d.keysMu.Unlock()
	m, ok := d.keys[k]
	if !ok {
		m = &sync.Mutex{}
		d.keys[k] = m
	}
	return m
}

// IsEligible: атомарный check-and-set по ключу. Ключа нет или cooldown
// истёк: записываем now и возвращаем true. Иначе false без изменений.
func (d *Deduper) IsEligible(ctx context.Context, key models.AlertKey, now time.Time) bool {
	k := key.String()
	now = now.UTC()

	lock := d.keyLock(k)
	lock.Lock()
	d.mu.RLock()
	cur, existed := d.records[k]
	d.mu.RUnlock()

	if existed && now.Sub(cur.LastSentAt) < d.cooldown {
		lock.Unlock()
		return false
	}

	rec := models.AlertRecord{Key: key, LastSentAt: now}
	d.mu.Lock()
	d.records[k] = rec
	d.pending[k] = reservation{prev: cur.LastSentAt, existed: existed, at: now}
	d.mu.Unlock()
	lock.Unlock()

	d.put(ctx, rec)
	return true
}

// MarkSent подтверждает резерв после успешной отправки. at — время отправки.
func (d *Deduper) MarkSent(ctx context.Context, key models.AlertKey, at time.Time) {
	k := key.String()
	at = at.UTC()

	lock := d.keyLock(k)
	lock.Lock()
	d.mu.Lock()
	res, ok := d.pending[k]
	delete(d.pending, k)
	changed := !ok || !res.at.Equal(at)
	rec := models.AlertRecord{Key: key, LastSentAt: at}
	if changed {
		d.records[k] = rec
	}
	d.mu.Unlock()
	lock.Unlock()

	if changed {
		d.put(ctx, rec)
	}
}

// Rollback снимает резерв после неудачной отправки: ключ возвращается
// к прежнему значению, чтобы следующий цикл мог повторить алерт.
func (d *Deduper) Rollback(ctx context.Context, key models.AlertKey) {
	k := key.String()

	lock := d.keyLock(k)
	lock.Lock()
	d.mu.Lock()
	res, ok := d.pending[k]
	if !ok {
		d.mu.Unlock()
		lock.Unlock()
		return
	}
	delete(d.pending, k)
	var rec models.AlertRecord
	if res.existed {
		rec = models.AlertRecord{Key: key, LastSentAt: res.prev}
		d.records[k] = rec
	} else {
		delete(d.records, k)
	}
	d.mu.Unlock()
	lock.Unlock()

	if res.existed {
		d.put(ctx, rec)
		return
	}
	d.delete(ctx, key)
}

// Forget удаляет ключ целиком (alertctl reset).
func (d *Deduper) Forget(ctx context.Context, key models.AlertKey) {
	k := key.String()
	lock := d.keyLock(k)
	lock.Lock()
	d.mu.Lock()
	delete(d.records, k)
	delete(d.pending, k)
	d.mu.Unlock()
	lock.Unlock()

	d.delete(ctx, key)
}

// Remaining: сколько ждать до следующей разрешённой отправки; 0 — можно
// сейчас. Ничего не резервирует.
func (d *Deduper) Remaining(key models.AlertKey, now time.Time) time.Duration {
	d.mu.RLock()
	rec, ok := d.records[key.String()]
	d.mu.RUnlock()
	if !ok {
		return 0
	}
	if left := d.cooldown - now.Sub(rec.LastSentAt); left > 0 {
		return left
	}
	return 0
}

// Records: копия текущих записей, отсортированная по ключу.
func (d *Deduper) Records() []models.AlertRecord {
	d.mu.RLock()
	out := make([]models.AlertRecord, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

func (d *Deduper) Close() error { return d.store.Close() }

// ошибки записи только логируем: решение в памяти уже принято
func (d *Deduper) put(ctx context.Context, rec models.AlertRecord) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.store.Put(ctx, rec); err != nil {
		d.log.Error("persist alert record",
			zap.String("symbol", rec.Key.Symbol),
			zap.String("setup", rec.Key.Setup),
			zap.Error(err))
	}
}

func (d *Deduper) delete(ctx context.Context, key models.AlertKey) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.store.Delete(ctx, key); err != nil {
		d.log.Error("delete alert record",
			zap.String("symbol", key.Symbol),
			zap.String("setup", key.Setup),
			zap.Error(err))
	}
}
