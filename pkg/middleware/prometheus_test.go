package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func gatherNames(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	out := make(map[string]float64)
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		out[mf.GetName()] = total
	}
	return out
}

func TestMetricsHandlerCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/projects/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/api/projects/p1")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
	}

	names := gatherNames(t, reg)
	if got := names["antapp_http_requests_total"]; got != 3 {
		t.Errorf("requests_total = %v, want 3", got)
	}
	if got := names["antapp_http_request_duration_seconds"]; got != 3 {
		t.Errorf("request_duration samples = %v, want 3", got)
	}
}

func TestMetricsRouteLabelUsesPattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/projects/{id}", func(w http.ResponseWriter, _ *http.Request) {})

	ts := httptest.NewServer(r)
	defer ts.Close()

	for _, id := range []string{"p1", "p2", "p3"} {
		resp, err := http.Get(ts.URL + "/api/projects/" + id)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "antapp_http_requests_total" {
			continue
		}
		// One series, pattern label, not three raw-path series.
		if len(mf.GetMetric()) != 1 {
			t.Fatalf("series = %d, want 1", len(mf.GetMetric()))
		}
		for _, lp := range mf.GetMetric()[0].GetLabel() {
			if lp.GetName() == "route" && !strings.Contains(lp.GetValue(), "{id}") {
				t.Errorf("route label = %q, want the route pattern", lp.GetValue())
			}
		}
	}
}

func TestMetricsRelayRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.EventReceived("cursor-move")
	m.EventBroadcast("cursor-update", 4)
	m.BroadcastDropped()
	m.MutationFailed("actor-update")
	m.StoreWrite("actor-update", 5*time.Millisecond)

	names := gatherNames(t, reg)
	if got := names["antapp_relay_active_sessions"]; got != 1 {
		t.Errorf("active_sessions = %v, want 1", got)
	}
	if got := names["antapp_relay_events_total"]; got != 1 {
		t.Errorf("relay_events_total = %v, want 1", got)
	}
	if got := names["antapp_relay_broadcasts_total"]; got != 4 {
		t.Errorf("relay_broadcasts_total = %v, want 4", got)
	}
	if got := names["antapp_relay_broadcast_dropped_total"]; got != 1 {
		t.Errorf("broadcast_dropped = %v, want 1", got)
	}
	if got := names["antapp_relay_mutation_failures_total"]; got != 1 {
		t.Errorf("mutation_failures = %v, want 1", got)
	}
	if got := names["antapp_relay_store_write_duration_seconds"]; got != 1 {
		t.Errorf("store_write_duration samples = %v, want 1", got)
	}
}

func TestMetricsCustomNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("custom"))
	m.SessionOpened()

	names := gatherNames(t, reg)
	if _, ok := names["custom_relay_active_sessions"]; !ok {
		t.Error("expected custom namespace on metric names")
	}
}
