// Package payment оформляет оплату тарифов через Paystack и подтверждает её.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/paymentprovider"
	"github.com/magabrotheeeer/trading-signals/internal/plans"
	"github.com/magabrotheeeer/trading-signals/internal/storage"
)

// ReferencePrefix префикс идентификатора транзакции.
const ReferencePrefix = "sig_"

var (
	ErrUnknownPlan      = errors.New("unknown plan")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAmountMismatch   = errors.New("paid amount does not match plan price")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrGateway          = errors.New("payment provider unavailable")
)

// Repository хранилище пользователей и платежей.
type Repository interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	CreatePayment(ctx context.Context, p models.Payment) (int64, error)
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	CompletePayment(ctx context.Context, id int64, paidAt, expiry time.Time) error
	RejectPayment(ctx context.Context, id int64) error
	ListUserPayments(ctx context.Context, uid string) ([]*models.Payment, error)
}

// Provider платёжный шлюз.
type Provider interface {
	Initialize(ctx context.Context, in paymentprovider.InitializeRequest) (*paymentprovider.InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*paymentprovider.Transaction, error)
	VerifySignature(body []byte, signature string) bool
}

// Invalidator сбрасывает кеш статуса тарифа.
type Invalidator interface {
	Invalidate(ctx context.Context, uids ...string)
}

// Service сценарии оплаты.
type Service struct {
	repo      Repository
	provider  Provider
	access    Invalidator
	log       *slog.Logger
	completed *prometheus.CounterVec
	now       func() time.Time
}

// New создаёт сервис. completed может быть nil.
func New(repo Repository, provider Provider, access Invalidator, log *slog.Logger, completed *prometheus.CounterVec) *Service {
	return &Service{
		repo:      repo,
		provider:  provider,
		access:    access,
		log:       log,
		completed: completed,
		now:       time.Now,
	}
}

// Checkout создаёт транзакцию у провайдера и сохраняет платёж в статусе pending.
func (s *Service) Checkout(ctx context.Context, uid, planName string) (*models.Checkout, error) {
	const op = "services.payment.Checkout"
	plan, ok := plans.Find(planName)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownPlan)
	}
	user, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reference := ReferencePrefix + uuid.NewString()
	init, err := s.provider.Initialize(ctx, paymentprovider.InitializeRequest{
		Email:     user.Email,
		Amount:    plan.Amount,
		Currency:  plans.Currency,
		Reference: reference,
		Metadata:  map[string]string{"uid": uid, "plan": plan.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.CreatePayment(ctx, models.Payment{
		UserUID:   uid,
		Email:     user.Email,
		Reference: reference,
		PlanName:  plan.Name,
		Amount:    plan.Amount,
		Duration:  plan.Duration,
		Status:    models.PaymentPending,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("checkout started", slog.Int64("payment_id", id), slog.String("user_uid", uid),
		slog.String("plan", plan.Name))

	return &models.Checkout{
		Reference:        reference,
		AuthorizationURL: init.AuthorizationURL,
		AccessCode:       init.AccessCode,
		Amount:           plan.Amount,
		PlanName:         plan.Name,
	}, nil
}

// Confirm проверяет транзакцию у провайдера и завершает платёж пользователя uid.
// Повторный вызов для уже завершённого платежа возвращает его без изменений.
func (s *Service) Confirm(ctx context.Context, uid, reference string) (*models.Payment, error) {
	const op = "services.payment.Confirm"
	p, err := s.repo.GetPaymentByReference(ctx, reference)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.UserUID != uid {
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
	}
	p, err = s.settle(ctx, p)
	if err != nil {
		return p, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// HandleWebhook обрабатывает подписанное событие Paystack. Неизвестные события и
// ссылки игнорируются.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	const op = "services.payment.HandleWebhook"
	log := s.log.With(sl.Op(op))
	if !s.provider.VerifySignature(body, signature) {
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	var event paymentprovider.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidPayload, err)
	}
	if event.Event != paymentprovider.EventChargeSuccess {
		log.Info("webhook event ignored", slog.String("event", event.Event))
		return nil
	}

	p, err := s.repo.GetPaymentByReference(ctx, event.Data.Reference)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("webhook for unknown reference", slog.String("reference", event.Data.Reference))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = s.settle(ctx, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) settle(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	if p.Status != models.PaymentPending {
		return p, nil
	}
	log := s.log.With(slog.String("reference", p.Reference), slog.Int64("payment_id", p.ID))

	tx, err := s.provider.Verify(ctx, p.Reference)
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	if !tx.Successful() {
		log.Info("transaction not successful yet", slog.String("gateway_status", tx.Status))
		return p, nil
	}

	if tx.Amount != p.Amount {
		log.Warn("amount mismatch", slog.Int64("expected", p.Amount), slog.Int64("paid", tx.Amount))
		if err := s.repo.RejectPayment(ctx, p.ID); err != nil && !errors.Is(err, storage.ErrConflict) {
			return p, err
		}
		s.observe(models.PaymentRejected)
		p.Status = models.PaymentRejected
		p.Approved = new(bool)
		return p, ErrAmountMismatch
	}

	paidAt := s.now().UTC()
	if tx.PaidAt != nil {
		paidAt = tx.PaidAt.UTC()
	}
	expiry, err := plans.ExpiryFromDuration(paidAt, p.Duration)
	if err != nil {
		return p, err
	}

	err = s.repo.CompletePayment(ctx, p.ID, paidAt, expiry)
	if errors.Is(err, storage.ErrConflict) {
		// платёж уже завершён параллельным подтверждением
		return s.repo.GetPaymentByReference(ctx, p.Reference)
	}
	if err != nil {
		return p, err
	}
	s.access.Invalidate(ctx, p.UserUID)
	s.observe(models.PaymentSuccess)
	log.Info("payment completed", slog.String("user_uid", p.UserUID), slog.Time("expiry", expiry))

	approved := true
	p.Status = models.PaymentSuccess
	p.Approved = &approved
	p.PaidAt = &paidAt
	p.PlanExpiry = &expiry
	return p, nil
}

func (s *Service) observe(status string) {
	if s.completed != nil {
		s.completed.WithLabelValues(status).Inc()
	}
}

// History успешные и назначенные вручную платежи пользователя, новые первыми.
func (s *Service) History(ctx context.Context, uid string) ([]*models.Payment, error) {
	const op = "services.payment.History"
	list, err := s.repo.ListUserPayments(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}
