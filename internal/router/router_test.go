package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"

	"student-records/internal/config"
	"student-records/internal/handler"
	"student-records/internal/middleware"
	"student-records/internal/service"
)

type okPinger struct{}

func (okPinger) Health(context.Context) error { return nil }

func newTestRouter() http.Handler {
	cfg := &config.Config{
		Env:              "test",
		CORSOrigins:      []string{"https://app.example.com"},
		RateLimitRPM:     0,
		AuthRateLimitRPM: 2,
		RequestTimeout:   time.Second,
	}
	tokens := service.NewTokenService(nil, "router-test-secret", time.Minute, time.Hour)

	reg := prometheus.NewRegistry()
	return New(cfg, middleware.NewAuthMiddleware(tokens), middleware.NewMetrics(reg), Handlers{
		Auth:    handler.NewAuthHandler(service.NewAuthService(nil, tokens)),
		Query:   handler.NewQueryHandler(service.NewAnalyticsService(nil, nil, 0, nil)),
		Health:  handler.NewHealthHandler(okPinger{}),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	rec := serve(newTestRouter(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	h := newTestRouter()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/queries/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"code":"NOT_FOUND","message":"Route not found","details":"/api/queries/nope"}`, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/api/queries/top-courses", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_ProtectedRoutesRequireBearer(t *testing.T) {
	h := newTestRouter()
	for i, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/auth/sessions"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodPost, "/api/auth/logout-all"},
	} {
		// Distinct clients, so the auth rate limit never answers first.
		req := httptest.NewRequest(route.method, route.path, nil)
		req.RemoteAddr = fmt.Sprintf("198.51.100.%d:40000", i+1)

		rec := serve(h, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
		assert.Empty(t, rec.Header().Get("Retry-After"), route.path)
	}
}

func TestRouter_MalformedQueryNeverReachesStore(t *testing.T) {
	h := newTestRouter()
	for _, target := range []string{
		"/api/queries/top-courses?limit=abc",
		"/api/queries/institute-results/4?page=184467440737095516&limit=100",
	} {
		rec := serve(h, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestRouter_AuthRateLimit(t *testing.T) {
	h := newTestRouter()
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
		codes = append(codes, serve(h, req).Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/queries/top-courses", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := serve(newTestRouter(), req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	h := newTestRouter()
	serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}
