package signalsapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/trading-signals/internal/grpc/client"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/health"
	"github.com/magabrotheeeer/trading-signals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trading-signals/internal/metrics"
)

type allowAll struct{}

func (allowAll) Allow(_ context.Context, _ string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: limit.Burst}, nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	logger := newNoopLogger()

	// Соединение ленивое, до сервиса авторизации запросы без токена не доходят.
	authClient, err := client.NewAuthClient("127.0.0.1:1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = authClient.Close() })

	r := chi.NewRouter()
	RegisterRoutes(r, Deps{
		Logger:       logger,
		AuthClient:   authClient,
		Metrics:      metrics.New(prometheus.NewRegistry()),
		Limiter:      rate.NewLimiter(rate.Inf, 1),
		LoginLimiter: middlewarectx.NewLoginLimiter(logger, allowAll{}, 5),
		Health: map[string]health.Check{
			"postgres": func(context.Context) error { return nil },
		},
	})
	return r
}

func TestRoutes_Public(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/api/v1/plans", "/api/v1/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}
}

func TestRoutes_RequireToken(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/me"},
		{http.MethodGet, "/api/v1/subscription"},
		{http.MethodGet, "/api/v1/signals"},
		{http.MethodPost, "/api/v1/signals"},
		{http.MethodDelete, "/api/v1/signals/1"},
		{http.MethodPost, "/api/v1/notify/telegram"},
		{http.MethodGet, "/api/v1/admin/stats"},
		{http.MethodPost, "/api/v1/admin/plans/revoke"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestRoutes_UnknownPath(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoutes_Documented(t *testing.T) {
	router := newTestRouter(t)

	raw, err := swag.ReadDoc()
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	err = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.ReplaceAll(route, "/*/", "/")
		if !strings.HasPrefix(route, "/api/v1/") {
			return nil
		}
		path := strings.TrimSuffix(strings.TrimPrefix(route, "/api/v1"), "/")
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, "no docs for %s", path) {
			assert.Contains(t, ops, strings.ToLower(method), "no docs for %s %s", method, path)
		}
		return nil
	})
	require.NoError(t, err)
}
