package role

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/trading-signals/internal/services/admin"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) SetRole(ctx context.Context, uid, role string) error {
	return m.Called(ctx, uid, role).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRoleHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		role     string
		err      error
		wantCode int
	}{
		{name: "promote", body: `{"role":"admin"}`, role: "admin", wantCode: http.StatusOK},
		{name: "demote", body: `{"role":"user"}`, role: "user", wantCode: http.StatusOK},
		{name: "unknown user", body: `{"role":"admin"}`, role: "admin", err: fmt.Errorf("x: %w", admin.ErrUserNotFound), wantCode: http.StatusNotFound},
		{name: "storage failure", body: `{"role":"admin"}`, role: "admin", err: errors.New("db"), wantCode: http.StatusInternalServerError},
		{name: "bad role", body: `{"role":"owner"}`, wantCode: http.StatusUnprocessableEntity},
		{name: "broken json", body: `{`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(ServiceMock)
			if tt.role != "" {
				m.On("SetRole", mock.Anything, "u1", tt.role).Return(tt.err).Once()
			}

			req := httptest.NewRequest(http.MethodPut, "/admin/users/u1/role", bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("uid", "u1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rr := httptest.NewRecorder()
			New(newNoopLogger(), m).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			m.AssertExpectations(t)
		})
	}
}
