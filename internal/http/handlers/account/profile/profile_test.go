package profile

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/trading-signals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trading-signals/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Update(ctx context.Context, uid string, p models.ProfileUpdate) (*models.Profile, error) {
	args := m.Called(ctx, uid, p)
	res, _ := args.Get(0).(*models.Profile)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestProfileHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		call     bool
		wantCode int
	}{
		{name: "updated", body: `{"display_name":"Ada","photo_url":"https://img.example.com/a.png","bio":"fx"}`, call: true, wantCode: http.StatusOK},
		{name: "bad photo url", body: `{"photo_url":"not a url"}`, wantCode: http.StatusUnprocessableEntity},
		{name: "bad json", body: `{"display_name":`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(ServiceMock)
			if tt.call {
				m.On("Update", mock.Anything, "uid-1", models.ProfileUpdate{
					DisplayName: "Ada", PhotoURL: "https://img.example.com/a.png", Bio: "fx",
				}).Return(&models.Profile{User: &models.User{UID: "uid-1"}}, nil).Once()
			}

			req := httptest.NewRequest(http.MethodPut, "/me/profile", bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
			rr := httptest.NewRecorder()
			New(newNoopLogger(), m).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			m.AssertExpectations(t)
		})
	}
}
