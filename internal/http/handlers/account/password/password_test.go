package password

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/trading-signals/internal/grpc/client"
	"github.com/magabrotheeeer/trading-signals/internal/http/middlewarectx"
)

type AuthClientMock struct {
	mock.Mock
}

func (m *AuthClientMock) ChangePassword(ctx context.Context, uid, current, next string) error {
	return m.Called(ctx, uid, current, next).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPasswordHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		setup     func(*AuthClientMock)
		wantCode  int
		wantError string
	}{
		{
			name: "changed",
			body: `{"current_password":"old-secret","new_password":"new-secret","confirm_password":"new-secret"}`,
			setup: func(m *AuthClientMock) {
				m.On("ChangePassword", mock.Anything, "uid-1", "old-secret", "new-secret").Return(nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:      "confirmation mismatch",
			body:      `{"current_password":"old-secret","new_password":"new-secret","confirm_password":"other-secret"}`,
			setup:     func(_ *AuthClientMock) {},
			wantCode:  http.StatusBadRequest,
			wantError: MsgMismatch,
		},
		{
			name: "wrong current password",
			body: `{"current_password":"bad","new_password":"new-secret","confirm_password":"new-secret"}`,
			setup: func(m *AuthClientMock) {
				m.On("ChangePassword", mock.Anything, "uid-1", "bad", "new-secret").
					Return(fmt.Errorf("change: %w", client.ErrInvalidCredentials)).Once()
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:      "too short",
			body:      `{"current_password":"old-secret","new_password":"123","confirm_password":"123"}`,
			setup:     func(_ *AuthClientMock) {},
			wantCode:  http.StatusUnprocessableEntity,
			wantError: "NewPassword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(AuthClientMock)
			tt.setup(m)

			req := httptest.NewRequest(http.MethodPut, "/me/password", bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
			rr := httptest.NewRecorder()
			New(newNoopLogger(), m).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.wantError != "" {
				assert.Contains(t, resp["error"], tt.wantError)
			}
			m.AssertExpectations(t)
		})
	}
}
