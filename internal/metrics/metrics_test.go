package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/signals/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/plans", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/signals/1", "/signals/2", "/plans"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/signals/{id}", http.MethodGet, "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/plans", http.MethodGet, "200")))
}

func TestNew_SeparateRegistries(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.SignalsPublished.Inc()
	a.WSClients.Set(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.SignalsPublished))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SignalsPublished))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.WSClients))
}

func TestServe_EmptyAddressIsNoop(t *testing.T) {
	done := make(chan struct{})
	go func() {
		Serve(context.Background(), "", slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve with empty address must return immediately")
	}
}
