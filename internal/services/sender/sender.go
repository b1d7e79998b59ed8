package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/lib/smtp"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/telegram"
)

// Каналы и результаты доставки для метрики уведомлений.
const (
	ChannelTelegram = "telegram"
	ChannelEmail    = "email"

	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// SignalAlertText текст уведомления в Telegram о новом сигнале.
const SignalAlertText = "An update has been sent by the admin. Login and check it out: %s"

// SubscriberRepository выборка пользователей с действующим тарифом.
type SubscriberRepository interface {
	ListActiveSubscribers(ctx context.Context, now time.Time) ([]*models.User, error)
}

// Messenger отправляет текст в чат.
type Messenger interface {
	SendMessage(ctx context.Context, text string) error
}

type SenderService struct {
	repo      SubscriberRepository
	messenger Messenger
	transport smtp.TransportInterface
	loginURL  string
	log       *slog.Logger
	sent      *prometheus.CounterVec
	now       func() time.Time
}

// NewSenderService создает новый экземпляр SenderService. sent может быть nil.
func NewSenderService(repo SubscriberRepository, messenger Messenger, transport smtp.TransportInterface,
	loginURL string, log *slog.Logger, sent *prometheus.CounterVec) *SenderService {
	return &SenderService{
		repo:      repo,
		messenger: messenger,
		transport: transport,
		loginURL:  loginURL,
		log:       log,
		sent:      sent,
		now:       time.Now,
	}
}

func (s *SenderService) observe(channel, result string) {
	if s.sent != nil {
		s.sent.WithLabelValues(channel, result).Inc()
	}
}

// SendSignalAlert сообщает о новом сигнале в Telegram и письмом всем подписчикам с действующим тарифом.
func (s *SenderService) SendSignalAlert(ctx context.Context, body []byte) error {
	var message models.SignalNotification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("Failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	var errs []error
	err := s.messenger.SendMessage(ctx, fmt.Sprintf(SignalAlertText, s.loginURL))
	switch {
	case errors.Is(err, telegram.ErrNotConfigured):
		s.log.Warn("telegram is not configured, alert skipped", slog.Int64("signal_id", message.SignalID))
		s.observe(ChannelTelegram, ResultSkipped)
	case err != nil:
		s.log.Error("failed to send telegram alert", slog.Int64("signal_id", message.SignalID), sl.Err(err))
		s.observe(ChannelTelegram, ResultFailed)
		errs = append(errs, err)
	default:
		s.observe(ChannelTelegram, ResultSent)
	}

	subscribers, err := s.repo.ListActiveSubscribers(ctx, s.now())
	if err != nil {
		s.log.Error("failed to list subscribers", sl.Err(err))
		return errors.Join(append(errs, fmt.Errorf("failed to list subscribers: %w", err))...)
	}
	if len(subscribers) == 0 {
		s.log.Info("no active subscribers to e-mail", slog.Int64("signal_id", message.SignalID))
		return errors.Join(errs...)
	}

	to := make([]string, 0, len(subscribers))
	for _, u := range subscribers {
		to = append(to, u.Email)
	}
	subject := "New trading signal"
	bodyText := fmt.Sprintf("Hello!\n\nA new signal has been posted:\n\n%s\n\nLogin and check it out: %s",
		message.Text, s.loginURL)
	if err := s.deliver(to, "undisclosed-recipients:;", subject, bodyText); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SendPlanExpiring напоминает пользователю о скором окончании тарифа.
func (s *SenderService) SendPlanExpiring(_ context.Context, body []byte) error {
	var message models.PlanReminder
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("Failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	name := message.DisplayName
	if name == "" {
		name = message.Email
	}
	subject := "Your trading signals plan is about to expire"
	bodyText := fmt.Sprintf("Hello, %s!\n\nYour plan %q ends on %s.\n\nRenew it to keep receiving signals: %s",
		name, message.PlanName, message.ExpiresAt.UTC().Format("02 Jan 2006 15:04 MST"), s.loginURL)

	return s.deliver([]string{message.Email}, message.Email, subject, bodyText)
}

func (s *SenderService) deliver(to []string, toHeader, subject, bodyText string) error {
	err := s.sendEmail(to, toHeader, subject, bodyText)
	switch {
	case errors.Is(err, smtp.ErrNotConfigured):
		s.log.Warn("smtp is not configured, e-mail skipped", slog.Int("recipients", len(to)))
		s.observe(ChannelEmail, ResultSkipped)
		return nil
	case err != nil:
		s.observe(ChannelEmail, ResultFailed)
		return err
	default:
		s.observe(ChannelEmail, ResultSent)
		return nil
	}
}

func (s *SenderService) sendEmail(to []string, toHeader, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + toHeader,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("Failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "recipients", len(to))
	return nil
}
