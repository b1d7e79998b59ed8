// Package access определяет, действует ли у пользователя тариф.
// Снимок статуса кешируется в redis; активность пересчитывается на момент чтения.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/trading-signals/internal/cache"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/plans"
	"github.com/magabrotheeeer/trading-signals/internal/storage"
)

// ErrNoSubscription у пользователя нет ни одной оплаты.
var ErrNoSubscription = errors.New("no subscription")

// Статусы страницы подписки.
const (
	SubscriptionActive          = "active"
	SubscriptionExpired         = "expired"
	SubscriptionInvalidDuration = "Invalid duration"
)

// PaymentRepository выборки платежей, определяющих доступ.
type PaymentRepository interface {
	LatestAccessPayment(ctx context.Context, uid string) (*models.Payment, error)
	LatestPaidPayment(ctx context.Context, uid string) (*models.Payment, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Service проверка доступа с кешированием.
type Service struct {
	repo  PaymentRepository
	cache Cache
	log   *slog.Logger
	ttl   time.Duration
	now   func() time.Time
}

// New создаёт сервис. ttl время жизни снимка в кеше.
func New(repo PaymentRepository, cache Cache, log *slog.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
		ttl:   ttl,
		now:   time.Now,
	}
}

// effectiveExpiry срок окончания по платежу: сохранённый или вычисленный из даты оплаты и длительности.
func effectiveExpiry(p *models.Payment) (*time.Time, error) {
	if p.PlanExpiry != nil {
		return p.PlanExpiry, nil
	}
	if p.PaidAt == nil {
		return nil, nil
	}
	exp, err := plans.ExpiryFromDuration(*p.PaidAt, p.Duration)
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

// Status возвращает состояние тарифа по последнему платежу со статусом success или assigned-manually.
func (s *Service) Status(ctx context.Context, uid string) (*models.PlanStatus, error) {
	const op = "services.access.Status"
	log := s.log.With(sl.Op(op), slog.String("user_uid", uid))
	key := cache.PlanStatusKey(uid)

	var snap models.PlanStatus
	found, err := s.cache.Get(ctx, key, &snap)
	if err != nil {
		log.Warn("failed to read plan status from cache", sl.Err(err))
	}
	if found {
		snap.HasPlan = plans.IsActive(snap.PlanName, snap.ExpiresAt, s.now())
		return &snap, nil
	}

	p, err := s.repo.LatestAccessPayment(ctx, uid)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		snap = models.PlanStatus{}
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	default:
		expiry, expErr := effectiveExpiry(p)
		if expErr != nil {
			log.Warn("payment has invalid duration", slog.Int64("payment_id", p.ID), sl.Err(expErr))
		}
		snap = models.PlanStatus{PlanName: p.PlanName, ExpiresAt: expiry, Payment: p}
	}
	snap.HasPlan = plans.IsActive(snap.PlanName, snap.ExpiresAt, s.now())

	if err := s.cache.Set(ctx, key, snap, s.ttl); err != nil {
		log.Warn("failed to cache plan status", sl.Err(err))
	}
	return &snap, nil
}

// HasActivePlan сокращение для Status(...).HasPlan.
func (s *Service) HasActivePlan(ctx context.Context, uid string) (bool, error) {
	st, err := s.Status(ctx, uid)
	if err != nil {
		return false, err
	}
	return st.HasPlan, nil
}

// Invalidate сбрасывает кеш статуса пользователей после изменения их тарифа.
func (s *Service) Invalidate(ctx context.Context, uids ...string) {
	if len(uids) == 0 {
		return
	}
	keys := make([]string, 0, len(uids))
	for _, uid := range uids {
		keys = append(keys, cache.PlanStatusKey(uid))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate plan status", slog.Int("count", len(keys)), sl.Err(err))
	}
}

// Subscription сведения о последней оплаченной подписке пользователя.
func (s *Service) Subscription(ctx context.Context, uid string) (*models.Subscription, error) {
	const op = "services.access.Subscription"
	p, err := s.repo.LatestPaidPayment(ctx, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub := &models.Subscription{
		PlanName: p.PlanName,
		Amount:   p.Amount,
		Duration: p.Duration,
		PaidOn:   p.PaidAt,
	}
	expiry, err := effectiveExpiry(p)
	if err != nil {
		sub.Status = SubscriptionInvalidDuration
		return sub, nil
	}
	sub.EndsOn = expiry
	sub.Active = plans.IsActive(p.PlanName, expiry, s.now())
	if sub.Active {
		sub.Status = SubscriptionActive
	} else {
		sub.Status = SubscriptionExpired
	}
	return sub, nil
}
