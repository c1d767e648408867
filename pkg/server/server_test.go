package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/netlogics/ollama-router/pkg/config"
	"github.com/netlogics/ollama-router/pkg/telemetry/metrics"
)

func testConfig() *config.Config {
	cfg := config.Default()
	return cfg
}

func TestHealthEndpoint(t *testing.T) {
	srv := New(Options{
		Config:  testConfig(),
		Engine:  http.NotFoundHandler(),
		Version: "1.2.3",
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", body["status"])
	}
	if body["version"] != "1.2.3" {
		t.Errorf("version field = %q, want 1.2.3", body["version"])
	}
}

func TestMetricsEndpointServedWhenEnabled(t *testing.T) {
	collector := metrics.NewCollector("ollama_router")
	srv := New(Options{
		Config:  testConfig(),
		Engine:  http.NotFoundHandler(),
		Metrics: collector.Handler(),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics exposition missing runtime metrics")
	}
}

func TestMetricsEndpointDisabled(t *testing.T) {
	cfg := testConfig()
	disabled := false
	cfg.Telemetry.Metrics.Enabled = &disabled

	engineHits := 0
	srv := New(Options{
		Config: cfg,
		Engine: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			engineHits++
			w.WriteHeader(http.StatusBadGateway)
		}),
		Metrics: metrics.NewCollector("ollama_router").Handler(),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	// With the endpoint disabled the path falls through to the engine.
	if engineHits != 1 {
		t.Errorf("engine hits = %d, want 1", engineHits)
	}
}

func TestProxyPathsReachEngine(t *testing.T) {
	var gotPath string
	srv := New(Options{
		Config: testConfig(),
		Engine: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(200)
		}),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat/completions", nil))

	if gotPath != "/v1/chat/completions" {
		t.Errorf("engine saw path %q", gotPath)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request ID header missing from response")
	}
}

func TestStopBeforeStartIsNotLost(t *testing.T) {
	srv := New(Options{
		Config: testConfig(),
		Engine: http.NotFoundHandler(),
	})

	// Stop issued before Start reaches its select must stay queued so
	// the server shuts down instead of running forever.
	srv.Stop()

	select {
	case <-srv.shutdownChan:
	default:
		t.Fatal("Stop before Start was discarded")
	}
}

func TestPanicInEngineReturns500(t *testing.T) {
	srv := New(Options{
		Config: testConfig(),
		Engine: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("engine blew up")
		}),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/v1/models", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
