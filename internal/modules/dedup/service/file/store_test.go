package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"setup_scanner/internal/models"
)

func TestStore_PutLoadDelete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "alerts.json")
	s := New(path)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	k1 := models.AlertKey{Symbol: "BTC-USDT", Setup: "SETUP 1 – Rigorous"}
	k2 := models.AlertKey{Symbol: "ETH-USDT", Setup: "SETUP 3 – Light"}

	if err := s.Put(ctx, models.AlertRecord{Key: k1, LastSentAt: at}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, models.AlertRecord{Key: k2, LastSentAt: at.Add(time.Minute)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("tmp file must be renamed away")
	}

	got, err := New(path).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Key != k1 || !got[0].LastSentAt.Equal(at) {
		t.Fatalf("loaded = %+v", got)
	}

	if err := s.Delete(ctx, k1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = New(path).Load(ctx)
	if len(got) != 1 || got[0].Key != k2 {
		t.Fatalf("after delete = %+v", got)
	}
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	got, err := New(filepath.Join(t.TempDir(), "none.json")).Load(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestStore_LegacyTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	raw := `{"SOL-USDT_SETUP 5 – High Confluence": "2025-02-10T08:30:00.123456"}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := New(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := time.Date(2025, 2, 10, 8, 30, 0, 123456000, time.UTC)
	if len(got) != 1 || !got[0].LastSentAt.Equal(want) || got[0].Key.Symbol != "SOL-USDT" {
		t.Fatalf("got %+v", got)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).Load(context.Background()); err == nil {
		t.Fatal("corrupt snapshot must fail to load")
	}
}
