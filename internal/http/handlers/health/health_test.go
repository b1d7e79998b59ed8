package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func ok(context.Context) error { return nil }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]Check
		wantCode int
		want     map[string]any
	}{
		{
			name:     "all up",
			checks:   map[string]Check{"postgres": ok, "redis": ok},
			wantCode: http.StatusOK,
			want:     map[string]any{"postgres": "ok", "redis": "ok"},
		},
		{
			name: "redis down",
			checks: map[string]Check{"postgres": ok, "redis": func(context.Context) error {
				return errors.New("connection refused")
			}},
			wantCode: http.StatusServiceUnavailable,
			want:     map[string]any{"postgres": "ok", "redis": "down"},
		},
		{name: "no dependencies", checks: nil, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			New(newNoopLogger(), tt.checks).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.wantCode, rr.Code)
			if tt.want != nil {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tt.want, resp["data"])
			}
		})
	}
}
