package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Level(t *testing.T) {
	old := SetServiceName("test")
	defer SetServiceName(old)

	l, err := New(Config{Level: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug must be disabled at warn level")
	}
	if InfoLogger != l || FatalLogger != l {
		t.Error("globals not initialized")
	}
	Info("hello %s", "world")
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
