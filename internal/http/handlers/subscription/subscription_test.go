package subscription

import (
	"context"
	"encoding/json"
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
	"github.com/magabrotheeeer/trading-signals/internal/services/access"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Subscription(ctx context.Context, uid string) (*models.Subscription, error) {
	args := m.Called(ctx, uid)
	s, _ := args.Get(0).(*models.Subscription)
	return s, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSubscriptionHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name      string
		sub       *models.Subscription
		err       error
		wantCode  int
		wantError string
	}{
		{
			name:     "active",
			sub:      &models.Subscription{PlanName: "1 Month Access", Active: true, Status: access.SubscriptionActive},
			wantCode: http.StatusOK,
		},
		{
			name:     "invalid duration rendered inactive",
			sub:      &models.Subscription{PlanName: "Legacy", Duration: "forever", Status: access.SubscriptionInvalidDuration},
			wantCode: http.StatusOK,
		},
		{
			name:      "none",
			err:       access.ErrNoSubscription,
			wantCode:  http.StatusNotFound,
			wantError: "no subscription",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(ServiceMock)
			m.On("Subscription", mock.Anything, "uid-1").Return(tt.sub, tt.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/subscription", nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
			rr := httptest.NewRecorder()
			New(newNoopLogger(), m).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp["error"])
				return
			}
			sub := resp["data"].(map[string]any)["subscription"].(map[string]any)
			assert.Equal(t, tt.sub.Active, sub["active"])
			assert.Equal(t, tt.sub.Status, sub["status"])
		})
	}
}
