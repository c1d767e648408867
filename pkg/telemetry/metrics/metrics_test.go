package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRecordRequest(t *testing.T) {
	collector := NewCollector("ollama_router")

	collector.Requests.RecordRequest("/v1/chat/completions", "POST", 200, "completed", 1500*time.Millisecond, 256, 8192)
	collector.Requests.RecordRequest("/*", "GET", 504, "timed_out", 30*time.Second, 0, 0)

	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}

	for _, name := range []string{
		"ollama_router_requests_total",
		"ollama_router_request_duration_seconds",
		"ollama_router_request_bytes",
		"ollama_router_active_streams",
	} {
		if !found[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestActiveStreamsGauge(t *testing.T) {
	collector := NewCollector("ollama_router")

	collector.Requests.StreamStarted()
	collector.Requests.StreamStarted()
	collector.Requests.StreamFinished()

	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != "ollama_router_active_streams" {
			continue
		}
		if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 1 {
			t.Errorf("active_streams = %v, want 1", got)
		}
		return
	}
	t.Fatal("active_streams metric not found")
}

func TestHandlerServesExposition(t *testing.T) {
	collector := NewCollector("ollama_router")
	collector.Requests.RecordRequest("/v1/models", "GET", 200, "completed", time.Millisecond, 0, 42)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ollama_router_requests_total") {
		t.Error("exposition missing requests_total")
	}
}
