package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"setup_scanner/internal/models"
)

func TestStore_Upsert(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "alerts.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	k := models.AlertKey{Symbol: "BTC-USDT", Setup: "SETUP 6 – Breakout with Confluence"}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Put(ctx, models.AlertRecord{Key: k, LastSentAt: at}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, models.AlertRecord{Key: k, LastSentAt: at.Add(time.Hour)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].Key != k || !got[0].LastSentAt.Equal(at.Add(time.Hour)) {
		t.Fatalf("got %+v", got)
	}

	if err := s.Delete(ctx, k); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.Load(ctx); len(got) != 0 {
		t.Fatalf("after delete: %+v", got)
	}
}
