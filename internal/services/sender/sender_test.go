package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/trading-signals/internal/lib/smtp"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/telegram"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListActiveSubscribers(ctx context.Context, now time.Time) ([]*models.User, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendMessage(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const loginURL = "https://signals.example.com/login"

var now = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

// expectDelivery настраивает успешную SMTP-сессию для указанных получателей.
func expectDelivery(tr *MockTransport, recipients ...string) *MockSMTPWriter {
	client := new(MockSMTPClient)
	writer := new(MockSMTPWriter)

	tr.On("GetSMTPUser").Return("sender@example.com")
	tr.On("Connect").Return(client, nil).Once()
	client.On("Mail", "sender@example.com").Return(nil).Once()
	for _, r := range recipients {
		client.On("Rcpt", r).Return(nil).Once()
	}
	client.On("Data").Return(writer, nil).Once()
	writer.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
	writer.On("Close").Return(nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()
	return writer
}

func newService(repo *MockRepository, msg *MockMessenger, tr *MockTransport, sent *prometheus.CounterVec) *SenderService {
	s := NewSenderService(repo, msg, tr, loginURL, newNoopLogger(), sent)
	s.now = func() time.Time { return now }
	return s
}

func TestSenderService_SendSignalAlert(t *testing.T) {
	body := []byte(`{"signal_id":5,"text":"BUY GBPUSD","created_at":"2026-04-02T07:59:00Z"}`)
	alert := "An update has been sent by the admin. Login and check it out: " + loginURL
	subscribers := []*models.User{{Email: "a@example.com"}, {Email: "b@example.com"}}

	tests := []struct {
		name         string
		body         []byte
		setupMocks   func(*MockRepository, *MockMessenger, *MockTransport)
		errorMessage string
	}{
		{
			name: "success - telegram and email",
			body: body,
			setupMocks: func(r *MockRepository, m *MockMessenger, tr *MockTransport) {
				m.On("SendMessage", mock.Anything, alert).Return(nil).Once()
				r.On("ListActiveSubscribers", mock.Anything, now).Return(subscribers, nil).Once()
				expectDelivery(tr, "a@example.com", "b@example.com")
			},
		},
		{
			name: "telegram not configured is skipped",
			body: body,
			setupMocks: func(r *MockRepository, m *MockMessenger, tr *MockTransport) {
				m.On("SendMessage", mock.Anything, alert).Return(telegram.ErrNotConfigured).Once()
				r.On("ListActiveSubscribers", mock.Anything, now).Return(subscribers, nil).Once()
				expectDelivery(tr, "a@example.com", "b@example.com")
			},
		},
		{
			name: "no subscribers",
			body: body,
			setupMocks: func(r *MockRepository, m *MockMessenger, _ *MockTransport) {
				m.On("SendMessage", mock.Anything, alert).Return(nil).Once()
				r.On("ListActiveSubscribers", mock.Anything, now).Return([]*models.User{}, nil).Once()
			},
		},
		{
			name: "smtp not configured is skipped",
			body: body,
			setupMocks: func(r *MockRepository, m *MockMessenger, tr *MockTransport) {
				m.On("SendMessage", mock.Anything, alert).Return(nil).Once()
				r.On("ListActiveSubscribers", mock.Anything, now).Return(subscribers, nil).Once()
				tr.On("GetSMTPUser").Return("")
				tr.On("Connect").Return(nil, smtp.ErrNotConfigured).Once()
			},
		},
		{
			name: "telegram failure is reported after email",
			body: body,
			setupMocks: func(r *MockRepository, m *MockMessenger, tr *MockTransport) {
				m.On("SendMessage", mock.Anything, alert).Return(&telegram.APIError{Code: 400, Description: "chat not found"}).Once()
				r.On("ListActiveSubscribers", mock.Anything, now).Return(subscribers, nil).Once()
				expectDelivery(tr, "a@example.com", "b@example.com")
			},
			errorMessage: "chat not found",
		},
		{
			name: "repository error",
			body: body,
			setupMocks: func(r *MockRepository, m *MockMessenger, _ *MockTransport) {
				m.On("SendMessage", mock.Anything, alert).Return(nil).Once()
				r.On("ListActiveSubscribers", mock.Anything, now).Return(nil, errors.New("db down")).Once()
			},
			errorMessage: "failed to list subscribers: db down",
		},
		{
			name:         "invalid JSON",
			body:         []byte(`invalid json`),
			setupMocks:   func(_ *MockRepository, _ *MockMessenger, _ *MockTransport) {},
			errorMessage: "error unmarshalling message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			messenger := new(MockMessenger)
			transport := new(MockTransport)
			service := newService(repo, messenger, transport, nil)

			tt.setupMocks(repo, messenger, transport)

			err := service.SendSignalAlert(context.Background(), tt.body)

			if tt.errorMessage != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			messenger.AssertExpectations(t)
			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_SendSignalAlert_Metrics(t *testing.T) {
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "notifications_total"}, []string{"channel", "result"})
	repo := new(MockRepository)
	messenger := new(MockMessenger)
	transport := new(MockTransport)

	messenger.On("SendMessage", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("ListActiveSubscribers", mock.Anything, now).Return([]*models.User{{Email: "a@example.com"}}, nil).Once()
	transport.On("GetSMTPUser").Return("sender@example.com")
	transport.On("Connect").Return(nil, errors.New("connection refused")).Once()

	err := newService(repo, messenger, transport, sent).SendSignalAlert(context.Background(), []byte(`{"signal_id":1,"text":"x"}`))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(sent.WithLabelValues(ChannelTelegram, ResultSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(sent.WithLabelValues(ChannelEmail, ResultFailed)))
}

func TestSenderService_SendPlanExpiring(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport) *MockSMTPWriter
		expectedError bool
		errorMessage  string
	}{
		{
			name: "success - send plan expiring email",
			body: []byte(`{"uid":"u1","email":"test@example.com","display_name":"Ada","plan":"1 Month Access","expires_at":"2026-04-03T08:00:00Z"}`),
			setupMocks: func(tr *MockTransport) *MockSMTPWriter {
				return expectDelivery(tr, "test@example.com")
			},
		},
		{
			name: "SMTP connection error",
			body: []byte(`{"uid":"u1","email":"test@example.com","plan":"1 Month Access","expires_at":"2026-04-03T08:00:00Z"}`),
			setupMocks: func(tr *MockTransport) *MockSMTPWriter {
				tr.On("GetSMTPUser").Return("sender@example.com")
				tr.On("Connect").Return(nil, errors.New("connection error")).Once()
				return nil
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
		{
			name: "invalid JSON",
			body: []byte(`invalid json`),
			setupMocks: func(_ *MockTransport) *MockSMTPWriter {
				return nil
			},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			service := newService(new(MockRepository), new(MockMessenger), transport, nil)

			writer := tt.setupMocks(transport)

			err := service.SendPlanExpiring(context.Background(), tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				require.NoError(t, err)
				written := string(writer.Calls[0].Arguments.Get(0).([]byte))
				assert.True(t, strings.Contains(written, "Hello, Ada!"))
				assert.Contains(t, written, "03 Apr 2026")
			}

			transport.AssertExpectations(t)
		})
	}
}
