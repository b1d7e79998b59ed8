package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/trading-signals/internal/grpc/client"
)

type AuthClientMock struct {
	mock.Mock
}

func (m *AuthClientMock) Register(ctx context.Context, email, password, displayName string) (string, error) {
	args := m.Called(ctx, email, password, displayName)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setup          func(*AuthClientMock)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "success",
			body: `{"email":"trader@example.com","password":"secret1","display_name":"Ada"}`,
			setup: func(m *AuthClientMock) {
				m.On("Register", mock.Anything, "trader@example.com", "secret1", "Ada").Return("uid-1", nil).Once()
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "invalid json",
			body:           `{`,
			setup:          func(_ *AuthClientMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "short password",
			body:           `{"email":"trader@example.com","password":"123"}`,
			setup:          func(_ *AuthClientMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Password must be at least 6 characters",
		},
		{
			name:           "long password",
			body:           `{"email":"trader@example.com","password":"` + strings.Repeat("a", 80) + `"}`,
			setup:          func(_ *AuthClientMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Password must be at most 72 characters",
		},
		{
			name: "email taken",
			body: `{"email":"trader@example.com","password":"secret1"}`,
			setup: func(m *AuthClientMock) {
				m.On("Register", mock.Anything, "trader@example.com", "secret1", "").
					Return("", fmt.Errorf("register: %w", client.ErrAlreadyExists)).Once()
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "service down",
			body: `{"email":"trader@example.com","password":"secret1"}`,
			setup: func(m *AuthClientMock) {
				m.On("Register", mock.Anything, "trader@example.com", "secret1", "").Return("", errors.New("boom")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthClientMock)
			tt.setup(authMock)
			handler := New(newNoopLogger(), authMock)

			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.wantError != "" {
				assert.Equal(t, "Error", resp["status"])
				assert.Contains(t, resp["error"], tt.wantError)
			}
			if tt.wantStatusCode == http.StatusCreated {
				data := resp["data"].(map[string]any)
				assert.Equal(t, "uid-1", data["uid"])
			}
			authMock.AssertExpectations(t)
		})
	}
}
