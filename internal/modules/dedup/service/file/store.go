package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"setup_scanner/internal/models"
)

const DefaultPath = "data/alerts_sent.json"

// старый формат хранил naive UTC без зоны
const legacyLayout = "2006-01-02T15:04:05.999999"

// Store: JSON-снапшот {"<symbol>_<setup>": "<RFC3339 UTC>"}.
// Весь файл переписывается на каждую запись через tmp + rename.
type Store struct {
	path string

	mu     sync.Mutex
	cache  map[string]time.Time
	loaded bool
}

func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		path:  path,
		cache: make(map[string]time.Time),
	}
}

func (s *Store) Load(ctx context.Context) ([]models.AlertRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	if err := s.loadLocked(); err != nil {
		return nil, err
	}

	out := make([]models.AlertRecord, 0, len(s.cache))
	for raw, at := range s.cache {
		key, ok := models.ParseAlertKey(raw)
		if !ok {
			continue
		}
		out = append(out, models.AlertRecord{Key: key, LastSentAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out, nil
}

func (s *Store) Put(ctx context.Context, rec models.AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	s.cache[rec.Key.String()] = rec.LastSentAt.UTC()
	return s.saveLocked()
}

func (s *Store) Delete(ctx context.Context, key models.AlertKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	delete(s.cache, key.String())
	return s.saveLocked()
}

func (s *Store) Close() error { return nil }

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.cache = make(map[string]time.Time)
			s.loaded = true
			return nil
		}
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	raw := map[string]string{}
	if len(b) > 0 {
		if err := sonic.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("decode %s: %w", s.path, err)
		}
	}

	s.cache = make(map[string]time.Time, len(raw))
	for k, v := range raw {
		at, err := parseTime(v)
		if err != nil {
			return fmt.Errorf("decode %s: key %q: %w", s.path, k, err)
		}
		s.cache[k] = at
	}

	s.loaded = true
	return nil
}

func (s *Store) saveLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	raw := make(map[string]string, len(s.cache))
	for k, at := range s.cache {
		raw[k] = at.UTC().Format(time.RFC3339Nano)
	}

	b, err := sonic.ConfigStd.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path) // атомарно
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(legacyLayout, v, time.UTC)
}
