package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/pagecraft/pkg/observability"
)

// value returns the value of the counter or the sample count of the
// histogram named name whose labels include want.
func value(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metrics
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			if m.GetHistogram() != nil {
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func TestHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewWithRegistry(reg)
	c.Install()
	defer observability.Reset()

	ctx := context.Background()
	observability.Pipeline().OnStageComplete(ctx, "merge", 10*time.Millisecond, nil)
	observability.Pipeline().OnStageComplete(ctx, "persist", time.Millisecond, errors.New("disk full"))
	observability.Pipeline().OnExportComplete(ctx, "acme", 2048, time.Second, nil)
	observability.Pipeline().OnExportComplete(ctx, "acme", 0, time.Second, errors.New("persist"))
	observability.Cache().OnCacheHit(ctx, "source")
	observability.Cache().OnCacheMiss(ctx, "source")
	observability.Cache().OnCacheMiss(ctx, "source")
	observability.Cache().OnCacheSet(ctx, "outline", 512)
	observability.Translate().OnProviderCall(ctx, "fr", time.Millisecond, nil)
	observability.Translate().OnProviderCall(ctx, "fr", time.Millisecond, errors.New("quota"))
	observability.Translate().OnFallback(ctx, "fr")

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"pagecraft_stage_duration_seconds", map[string]string{"stage": "merge"}, 1},
		{"pagecraft_stage_errors_total", map[string]string{"stage": "persist"}, 1},
		{"pagecraft_exports_total", map[string]string{"status": "ok"}, 1},
		{"pagecraft_exports_total", map[string]string{"status": "error"}, 1},
		{"pagecraft_archive_bytes", nil, 1},
		{"pagecraft_cache_requests_total", map[string]string{"kind": "source", "result": "hit"}, 1},
		{"pagecraft_cache_requests_total", map[string]string{"kind": "source", "result": "miss"}, 2},
		{"pagecraft_cache_written_bytes_total", map[string]string{"kind": "outline"}, 512},
		{"pagecraft_provider_calls_total", map[string]string{"locale": "fr", "status": "error"}, 1},
		{"pagecraft_provider_duration_seconds", map[string]string{"locale": "fr"}, 2},
		{"pagecraft_translation_fallbacks_total", map[string]string{"locale": "fr"}, 1},
	}
	for _, tt := range tests {
		if got := value(t, reg, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewWithRegistry(reg)

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	}
	want := map[string]string{"method": "GET", "route": "/sessions/{id}", "status": "404"}
	if got := value(t, reg, "pagecraft_http_requests_total", want); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
}
