package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexacrm/ledgerd/internal/exports"
	exportshttp "github.com/nexacrm/ledgerd/internal/exports/http"
	"github.com/nexacrm/ledgerd/internal/observability"
	"github.com/nexacrm/ledgerd/jobs"
)

type stubExports struct{}

func (stubExports) ExportFEC(ctx context.Context, req exports.Request) (exports.Export, error) {
	return exports.Export{Filename: "000000000FEC20241231.txt", ContentType: "text/plain; charset=utf-8", Content: []byte("JournalCode\n")}, nil
}

func (stubExports) Preview(ctx context.Context, org uuid.UUID, p exports.Period) (exports.Preview, error) {
	return exports.Preview{}, nil
}

func (stubExports) Tabular(ctx context.Context, org uuid.UUID, ds exports.Dataset, p exports.Period, format exports.Format) (exports.Export, error) {
	return exports.Export{}, nil
}

type stubInspector struct{}

func (stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Pending: 3}, nil
}

func newTestApp(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	metrics := observability.NewMetrics()
	return NewRouter(RouterParams{
		Config:         cfg,
		ExportsHandler: exportshttp.NewHandler(nil, stubExports{}, nil, exportshttp.Config{}),
		JobHandler:     jobs.NewHandler(stubInspector{}, nil),
		Metrics:        metrics,
	})
}

func serve(h http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthAndSecurityHeaders(t *testing.T) {
	h := newTestApp(t, &Config{})
	rr := serve(h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestRouterExportsRequireOrganization(t *testing.T) {
	h := newTestApp(t, &Config{TenantHeader: "X-Tenant"})
	target := "/exports/fec?from_date=2024-01-01&to_date=2024-12-31"

	rr := serve(h, http.MethodGet, target, map[string]string{"X-Organization-ID": uuid.NewString()})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(h, http.MethodGet, target, map[string]string{"X-Tenant": uuid.NewString()})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "FEC20241231.txt")
}

func TestRouterJobsHealthRequiresTenant(t *testing.T) {
	h := newTestApp(t, &Config{})
	rr := serve(h, http.MethodGet, "/exports/jobs/health", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(h, http.MethodGet, "/exports/jobs/health", map[string]string{"X-Organization-ID": uuid.NewString()})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"pending":3`)
}

func TestRouterMetrics(t *testing.T) {
	h := newTestApp(t, &Config{})
	serve(h, http.MethodGet, "/healthz", nil)

	rr := serve(h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `ledgerd_http_requests_total{code="200",route="/healthz"}`), body)
}
