package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"setup_scanner/internal/models"
	"setup_scanner/internal/modules/dedup/service/file"
)

var t0 = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (cfgPath, storePath string) {
	t.Helper()
	dir := t.TempDir()
	storePath = filepath.Join(dir, "alerts_sent.json")
	cfgPath = filepath.Join(dir, "values.yaml")

	yml := "dedup:\n  backend: file\n  file_path: " + storePath + "\n  cooldown: 1h\n"
	if err := os.WriteFile(cfgPath, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	st := file.New(storePath)
	ctx := context.Background()
	for _, r := range []models.AlertRecord{
		{Key: models.AlertKey{Symbol: "BTC-USDT", Setup: models.Setups[models.SetupRigorous].Label}, LastSentAt: t0.Add(-20 * time.Minute)},
		{Key: models.AlertKey{Symbol: "BTC-USDT", Setup: models.Setups[models.SetupLight].Label}, LastSentAt: t0.Add(-2 * time.Hour)},
		{Key: models.AlertKey{Symbol: "ETH-USDT", Setup: models.Setups[models.SetupBreakout].Label}, LastSentAt: t0.Add(-5 * time.Minute)},
	} {
		if err := st.Put(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	old := now
	now = func() time.Time { return t0 }
	t.Cleanup(func() { now = old })
	return cfgPath, storePath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	cfg, _ := setup(t)

	out, err := run(t, "list", "-c", cfg)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"BTC-USDT", "SETUP 1 – Rigorous", "40m0s", "ETH-USDT", "55m0s", "now"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestCheck(t *testing.T) {
	cfg, _ := setup(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"BTC-USDT", "1"}, "suppressed for 40m0s"},
		{[]string{"BTC-USDT", "3"}, "eligible"},
		{[]string{"SOL-USDT", "5"}, "eligible"},
	}
	for _, tt := range tests {
		out, err := run(t, append([]string{"check", "-c", cfg}, tt.args...)...)
		if err != nil {
			t.Fatalf("check %v: %v", tt.args, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("check %v = %q, want %q", tt.args, out, tt.want)
		}
	}

	if _, err := run(t, "check", "-c", cfg, "BTC-USDT", "9"); err == nil {
		t.Error("unknown setup must fail")
	}
}

func TestReset(t *testing.T) {
	cfg, storePath := setup(t)

	out, err := run(t, "reset", "-c", cfg, "BTC-USDT", "1")
	if err != nil || !strings.Contains(out, "removed 1 record(s)") {
		t.Fatalf("reset one: %q %v", out, err)
	}

	out, err = run(t, "reset", "-c", cfg, "BTC-USDT")
	if err != nil || !strings.Contains(out, "removed 1 record(s)") {
		t.Fatalf("reset all: %q %v", out, err)
	}

	recs, err := file.New(storePath).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Key.Symbol != "ETH-USDT" {
		t.Fatalf("left = %+v", recs)
	}
}

func TestLoadConfig_BackendFlagAndMissingFile(t *testing.T) {
	if _, err := run(t, "list", "-c", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("explicit missing config must fail")
	}

	out, err := run(t, "list", "-c", "", "-b", "memory")
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if !strings.HasPrefix(out, "SYMBOL") {
		t.Fatalf("out = %q", out)
	}
}
