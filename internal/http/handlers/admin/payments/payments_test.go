package payments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/services/admin"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Payments(ctx context.Context, status, query string) ([]*models.Payment, error) {
	args := m.Called(ctx, status, query)
	l, _ := args.Get(0).([]*models.Payment)
	return l, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPaymentsHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		status   string
		query    string
		err      error
		wantCode int
	}{
		{name: "no filter", url: "/admin/payments", wantCode: http.StatusOK},
		{name: "pending with search", url: "/admin/payments?status=pending&q=month", status: "pending", query: "month", wantCode: http.StatusOK},
		{name: "bad status", url: "/admin/payments?status=lost", status: "lost", err: fmt.Errorf("x: %w", admin.ErrInvalidStatus), wantCode: http.StatusBadRequest},
		{name: "storage failure", url: "/admin/payments", err: errors.New("db"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(ServiceMock)
			m.On("Payments", mock.Anything, tt.status, tt.query).Return(nil, tt.err).Once()

			rr := httptest.NewRecorder()
			New(newNoopLogger(), m).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.err == nil {
				assert.JSONEq(t, `{"status":"OK","data":{"payments":[]}}`, rr.Body.String())
			}
			m.AssertExpectations(t)
		})
	}
}
