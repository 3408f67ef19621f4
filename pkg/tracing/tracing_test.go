package tracing

import (
	"testing"

	"github.com/opentracing/opentracing-go"
)

func TestInitTracer_Disabled(t *testing.T) {
	tr, closer, err := InitTracer(Config{})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if _, ok := tr.(opentracing.NoopTracer); !ok {
		t.Fatalf("tracer = %T, want NoopTracer", tr)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestInitTracer_Enabled(t *testing.T) {
	old := SetServiceName("scanner-test")
	defer SetServiceName(old)

	tr, closer, err := InitTracer(Config{Enabled: true, Host: "127.0.0.1", Port: 6831})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	defer func() {
		_ = closer.Close()
		opentracing.SetGlobalTracer(opentracing.NoopTracer{})
	}()

	span := tr.StartSpan("probe")
	span.Finish()
	if opentracing.GlobalTracer() != tr {
		t.Fatalf("global tracer not set")
	}
}
