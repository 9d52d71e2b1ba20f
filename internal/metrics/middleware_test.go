package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/tickets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("[]"))
	})

	req := httptest.NewRequest("GET", "/api/tickets", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/tickets", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_DifferentStatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Post("/api/recommend", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("case") {
		case "invalid":
			w.WriteHeader(http.StatusBadRequest)
		case "store":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "llm":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte("{}"))
		}
	})

	tests := []struct {
		query          string
		expectedStatus string
	}{
		{"ok", "200"},
		{"invalid", "400"},
		{"store", "503"},
		{"llm", "502"},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/recommend?case="+tc.query, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/recommend", tc.expectedStatus))
			if val < 1 {
				t.Errorf("expected requests_total with status %s >= 1, got %f", tc.expectedStatus, val)
			}
		})
	}
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/api/tools/{name}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	for _, name := range []string{"sql_trials_by_grade", "sql_rnd_by_grade"} {
		req := httptest.NewRequest("POST", "/api/tools/"+name, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/tools/{name}", "200"))
	if val < 2 {
		t.Errorf("expected both tool calls under the route pattern, got %f", val)
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	for _, path := range []string{"/wp-admin", "/.env"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, http.NoBody))
	}

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))
	if val < 2 {
		t.Errorf("expected unmatched paths under one label, got %f", val)
	}
}

func TestMetricsMiddleware_InFlightReturnsToZero(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	var during float64
	r.Get("/api/tickets", func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(httpInFlight)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/tickets", http.NoBody))

	if during < 1 {
		t.Errorf("expected in-flight >= 1 inside the handler, got %f", during)
	}
	if after := testutil.ToFloat64(httpInFlight); after != 0 {
		t.Errorf("expected in-flight 0 after the request, got %f", after)
	}
}

func TestRouteLabel_NoRouteContext(t *testing.T) {
	if got := routeLabel(httptest.NewRequest("GET", "/", http.NoBody)); got != unmatchedRoute {
		t.Errorf("routeLabel without chi context = %q, want %q", got, unmatchedRoute)
	}
}

func TestMetricsHandler_ViaPromhttp(t *testing.T) {
	RegisterMetrics()
	LLMRequestsTotal.WithLabelValues("openai", "gpt-4o-mini", "ok").Inc()

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	if !strings.Contains(string(body), "reco_llm_requests_total") {
		t.Error("expected reco_llm_requests_total in metrics output")
	}
}
