package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestOpenTelemetryPassesRequestsThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(OpenTelemetry(WithTracerName("test")))
	r.Get("/api/projects/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(chi.URLParam(req, "id")))
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/projects/p1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestOpenTelemetryFilter(t *testing.T) {
	skipped := 0
	r := chi.NewRouter()
	r.Use(OpenTelemetry(WithRequestFilter(func(req *http.Request) bool {
		if req.URL.Path == "/healthz" {
			skipped++
			return false
		}
		return true
	})))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {})

	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if skipped != 1 {
		t.Errorf("filter skipped = %d, want 1", skipped)
	}
}
