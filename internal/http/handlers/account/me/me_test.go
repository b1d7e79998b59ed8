package me

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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/trading-signals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/services/profile"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Get(ctx context.Context, uid string) (*models.Profile, error) {
	args := m.Called(ctx, uid)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func request() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	return req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
}

func TestMeHandler_ServeHTTP(t *testing.T) {
	m := new(ServiceMock)
	m.On("Get", mock.Anything, "uid-1").Return(&models.Profile{
		User:    &models.User{UID: "uid-1", Email: "a@example.com", Role: models.RoleUser, PlanName: "1 Month Access"},
		HasPlan: true,
	}, nil).Once()

	rr := httptest.NewRecorder()
	New(newNoopLogger(), m).ServeHTTP(rr, request())

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Profile map[string]any `json:"profile"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "uid-1", resp.Data.Profile["uid"])
	assert.Equal(t, true, resp.Data.Profile["has_plan"])
	assert.Equal(t, "1 Month Access", resp.Data.Profile["plan"])
	assert.NotContains(t, resp.Data.Profile, "password_hash")
}

func TestMeHandler_Errors(t *testing.T) {
	m := new(ServiceMock)
	m.On("Get", mock.Anything, "uid-1").Return(nil, profile.ErrUserNotFound).Once()
	rr := httptest.NewRecorder()
	New(newNoopLogger(), m).ServeHTTP(rr, request())
	assert.Equal(t, http.StatusNotFound, rr.Code)

	m.On("Get", mock.Anything, "uid-1").Return(nil, errors.New("db")).Once()
	rr = httptest.NewRecorder()
	New(newNoopLogger(), m).ServeHTTP(rr, request())
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
