package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	jobmetrics "github.com/nexacrm/ledgerd/internal/jobs"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobmetrics.NewMetrics(metrics.Registerer()).Track("exports:fec").End(nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	metrics.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "ledgerd_jobs_total") {
		t.Fatalf("expected body to contain ledgerd_jobs_total, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	metricsBody := metricsRR.Body.String()
	if !strings.Contains(metricsBody, "http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestObserveExport(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveExport("fec", "success", 120, 30*time.Millisecond)
	metrics.ObserveExport("fec", "error", 0, time.Millisecond)
	metrics.ObserveExport("csv", "success", 12, time.Millisecond)

	if got := testutil.ToFloat64(metrics.exportsTotal.WithLabelValues("fec", "success")); got != 1 {
		t.Fatalf("expected one successful fec export, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.exportsTotal.WithLabelValues("fec", "error")); got != 1 {
		t.Fatalf("expected one failed fec export, got %v", got)
	}
	if got := testutil.CollectAndCount(metrics.exportLines); got != 1 {
		t.Fatalf("expected line histogram to be collected once, got %d", got)
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveExport("fec", "success", 1, time.Millisecond)
}
