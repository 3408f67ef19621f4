package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"setup_scanner/internal/models"
)

const hashName = "alerts_sent"

// Config: подключение к Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store: один hash <prefix>alerts_sent, поле = ключ алерта, значение = RFC3339.
type Store struct {
	client *goredis.Client
	key    string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(client, cfg.Prefix), nil
}

func NewWithClient(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, key: prefix + hashName}
}

func (s *Store) Load(ctx context.Context) ([]models.AlertRecord, error) {
	m, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}

	out := make([]models.AlertRecord, 0, len(m))
	for raw, v := range m {
		key, ok := models.ParseAlertKey(raw)
		if !ok {
			continue
		}
		at, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("redis %s[%s]: %w", s.key, raw, err)
		}
		out = append(out, models.AlertRecord{Key: key, LastSentAt: at.UTC()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out, nil
}

func (s *Store) Put(ctx context.Context, rec models.AlertRecord) error {
	err := s.client.HSet(ctx, s.key, rec.Key.String(), rec.LastSentAt.UTC().Format(time.RFC3339Nano)).Err()
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key models.AlertKey) error {
	if err := s.client.HDel(ctx, s.key, key.String()).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.client.Close() }
