package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"setup_scanner/internal/models"
)

// нужен живой Redis: REDIS_ADDR=localhost:6379 go test ./...
func TestStore_Live(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	s, err := New(ctx, Config{Addr: addr, Prefix: "test:" + t.Name() + ":"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()
	defer s.client.Del(ctx, s.key)

	k := models.AlertKey{Symbol: "BTC-USDT", Setup: "SETUP 2 – Intermediate"}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Put(ctx, models.AlertRecord{Key: k, LastSentAt: at}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil || len(got) != 1 || !got[0].LastSentAt.Equal(at) {
		t.Fatalf("load = %+v, %v", got, err)
	}
	if err := s.Delete(ctx, k); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
