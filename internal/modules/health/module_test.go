package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"setup_scanner/internal/modules/config"
	"setup_scanner/internal/modules/health/service"
)

func TestMux(t *testing.T) {
	state := service.NewState()
	mux := NewMux(state)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := get("/livez"); rec.Code != http.StatusOK {
		t.Fatalf("/livez = %d", rec.Code)
	}
	if rec := get("/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz before ready = %d", rec.Code)
	}

	state.SetReady(true)
	state.TouchCycle(time.Unix(1700000000, 0))
	state.SetStatus(func() service.Status {
		return service.Status{Active: true, LastCycle: "abc", Sent: 2}
	})

	if rec := get("/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("/readyz = %d", rec.Code)
	}

	rec := get("/healthz")
	body := rec.Body.String()
	for _, want := range []string{`"ready":true`, `"lastCycleUnix":1700000000`, `"active":true`, `"lastCycle":"abc"`} {
		if !strings.Contains(body, want) {
			t.Errorf("/healthz missing %s: %s", want, body)
		}
	}

	if rec := get("/metrics"); rec.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", rec.Code)
	}
}

func TestNewConfig(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader("service:\n  public_port: 9090\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := NewConfig(cfg).Addr; got != ":9090" {
		t.Fatalf("Addr = %q", got)
	}
}
