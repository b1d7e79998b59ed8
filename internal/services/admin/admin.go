// Package admin операции панели администратора: пользователи, платежи и ручная выдача тарифов.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/plans"
	"github.com/magabrotheeeer/trading-signals/internal/storage"
)

var (
	ErrInvalidRole     = errors.New("role must be admin or user")
	ErrUserNotFound    = errors.New("User not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrNotPending      = errors.New("payment is not pending")
	ErrInvalidStatus   = errors.New("invalid status filter")
	ErrUnknownPlan     = errors.New("unknown plan")
	ErrMissingFields   = errors.New("uid and payment_id are required")
	ErrInvalidUID      = errors.New("uid must be a valid uuid")
)

// StatusAll значение фильтра, отключающее отбор по статусу.
const StatusAll = "all"

var statusFilters = map[string]bool{
	models.PaymentPending:  true,
	models.PaymentSuccess:  true,
	models.PaymentRejected: true,
	models.PaymentAssigned: true,
	models.PaymentRevoked:  true,
}

// Repository хранилище для админских операций.
type Repository interface {
	Stats(ctx context.Context) (*models.Stats, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	SetRole(ctx context.Context, uid, role string) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error)
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	CompletePayment(ctx context.Context, id int64, paidAt, expiry time.Time) error
	RejectPayment(ctx context.Context, id int64) error
	AssignPlan(ctx context.Context, p models.Payment) (int64, error)
	RevokePlan(ctx context.Context, uid string, paymentID int64) error
}

// Invalidator сбрасывает кеш статуса тарифа.
type Invalidator interface {
	Invalidate(ctx context.Context, uids ...string)
}

// Service админские сценарии.
type Service struct {
	repo      Repository
	access    Invalidator
	log       *slog.Logger
	completed *prometheus.CounterVec
	now       func() time.Time
}

// New создаёт сервис. completed может быть nil.
func New(repo Repository, access Invalidator, log *slog.Logger, completed *prometheus.CounterVec) *Service {
	return &Service{
		repo:      repo,
		access:    access,
		log:       log,
		completed: completed,
		now:       time.Now,
	}
}

func (s *Service) observe(status string) {
	if s.completed != nil {
		s.completed.WithLabelValues(status).Inc()
	}
}

// Stats сводка: пользователи, платежи, успешные платежи.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	const op = "services.admin.Stats"
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// Users список всех пользователей.
func (s *Service) Users(ctx context.Context) ([]*models.User, error) {
	const op = "services.admin.Users"
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// SetRole выдаёт или снимает права администратора.
func (s *Service) SetRole(ctx context.Context, uid, role string) error {
	const op = "services.admin.SetRole"
	if role != models.RoleAdmin && role != models.RoleUser {
		return fmt.Errorf("%s: %w", op, ErrInvalidRole)
	}
	if _, err := uuid.Parse(uid); err != nil {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	err := s.repo.SetRole(ctx, uid, role)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("role changed", slog.String("user_uid", uid), slog.String("role", role))
	return nil
}

// Payments платежи с фильтром по статусу ("all" или пусто для всех) и строкой поиска.
func (s *Service) Payments(ctx context.Context, status, query string) ([]*models.Payment, error) {
	const op = "services.admin.Payments"
	status = strings.ToLower(strings.TrimSpace(status))
	if status == StatusAll {
		status = ""
	}
	if status != "" && !statusFilters[status] {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidStatus)
	}
	list, err := s.repo.ListPayments(ctx, models.PaymentFilter{Status: status, Query: query})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func (s *Service) pendingPayment(ctx context.Context, id int64) (*models.Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentPending {
		return nil, ErrNotPending
	}
	return p, nil
}

// Approve подтверждает ожидающий платёж: тариф действует с текущего момента на срок из платежа.
func (s *Service) Approve(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "services.admin.Approve"
	p, err := s.pendingPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	expiry, err := plans.ExpiryFromDuration(now, p.Duration)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = s.repo.CompletePayment(ctx, id, now, expiry)
	if errors.Is(err, storage.ErrConflict) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotPending)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.access.Invalidate(ctx, p.UserUID)
	s.observe(models.PaymentSuccess)
	s.log.Info("payment approved", slog.Int64("payment_id", id), slog.String("user_uid", p.UserUID))

	approved := true
	p.Status = models.PaymentSuccess
	p.Approved = &approved
	p.PaidAt = &now
	p.PlanExpiry = &expiry
	return p, nil
}

// Reject отклоняет ожидающий платёж.
func (s *Service) Reject(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "services.admin.Reject"
	p, err := s.pendingPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = s.repo.RejectPayment(ctx, id)
	if errors.Is(err, storage.ErrConflict) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotPending)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.observe(models.PaymentRejected)
	s.log.Info("payment rejected", slog.Int64("payment_id", id))

	p.Status = models.PaymentRejected
	p.Approved = new(bool)
	return p, nil
}

// Assign вручную выдаёт тариф пользователю с почтой email на число дней тарифа.
func (s *Service) Assign(ctx context.Context, email, planName string) (*models.Payment, error) {
	const op = "services.admin.Assign"
	plan, ok := plans.Find(planName)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownPlan)
	}
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	expiry := now.AddDate(0, 0, plan.Days)
	approved := true
	p := models.Payment{
		UserUID:    user.UID,
		Email:      user.Email,
		Reference:  fmt.Sprintf("manual-%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		PlanName:   plan.Name,
		Amount:     plan.Amount,
		Duration:   fmt.Sprintf("%d days", plan.Days),
		Status:     models.PaymentAssigned,
		Approved:   &approved,
		PaidAt:     &now,
		PlanExpiry: &expiry,
		CreatedAt:  now,
	}
	id, err := s.repo.AssignPlan(ctx, p)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = id
	s.access.Invalidate(ctx, user.UID)
	s.log.Info("plan assigned", slog.String("user_uid", user.UID), slog.String("plan", plan.Name),
		slog.Time("expiry", expiry))
	return &p, nil
}

// Assigned платежи, созданные ручной выдачей.
func (s *Service) Assigned(ctx context.Context) ([]*models.Payment, error) {
	const op = "services.admin.Assigned"
	list, err := s.repo.ListPayments(ctx, models.PaymentFilter{Status: models.PaymentAssigned})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Revoke снимает тариф с пользователя и помечает платёж отозванным.
func (s *Service) Revoke(ctx context.Context, uid string, paymentID int64) error {
	const op = "services.admin.Revoke"
	if strings.TrimSpace(uid) == "" || paymentID <= 0 {
		return fmt.Errorf("%s: %w", op, ErrMissingFields)
	}
	if _, err := uuid.Parse(uid); err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidUID)
	}
	err := s.repo.RevokePlan(ctx, uid, paymentID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.access.Invalidate(ctx, uid)
	s.log.Info("plan revoked", slog.String("user_uid", uid), slog.Int64("payment_id", paymentID))
	return nil
}
