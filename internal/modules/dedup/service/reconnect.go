package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"setup_scanner/internal/models"
)

// DialFunc открывает backend. Вызывается под ctx операции, который пришёл в Store.
type DialFunc func(ctx context.Context) (Store, error)

// ReconnectingStore подключается к backend при первом обращении. Пока
// подключения нет, любая операция возвращает ErrPersistence и следующая
// пробует снова, так что Deduper.Recover в начале цикла заодно переподключает.
type ReconnectingStore struct {
	name string
	dial DialFunc
	log  *zap.Logger

	mu    sync.Mutex
	store Store
}

func NewReconnectingStore(name string, dial DialFunc, log *zap.Logger) *ReconnectingStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReconnectingStore{name: name, dial: dial, log: log.With(zap.String("backend", name))}
}

func (r *ReconnectingStore) get(ctx context.Context) (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store != nil {
		return r.store, nil
	}

	s, err := r.dial(ctx)
	if err != nil {
		r.log.Warn("alert store unavailable", zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", models.ErrPersistence, r.name, err)
	}
	r.log.Info("alert store connected")
	r.store = s
	return s, nil
}

// Connected: есть ли живое подключение.
func (r *ReconnectingStore) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store != nil
}

func (r *ReconnectingStore) Load(ctx context.Context) ([]models.AlertRecord, error) {
	s, err := r.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx)
}

func (r *ReconnectingStore) Put(ctx context.Context, rec models.AlertRecord) error {
	s, err := r.get(ctx)
	if err != nil {
		return err
	}
	return s.Put(ctx, rec)
}

func (r *ReconnectingStore) Delete(ctx context.Context, key models.AlertKey) error {
	s, err := r.get(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, key)
}

func (r *ReconnectingStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}
