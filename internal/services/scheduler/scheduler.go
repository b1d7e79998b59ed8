package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/rabbitmq"
)

type PlanRepository interface {
	ClearExpiredPlans(ctx context.Context, now time.Time) ([]string, error)
	FindPlansExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error)
	MarkReminded(ctx context.Context, uid string, expiry time.Time) error
}

// Publisher отправляет сообщение в очередь уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Invalidator сбрасывает кеш статуса тарифа.
type Invalidator interface {
	Invalidate(ctx context.Context, uids ...string)
}

// Counter учитывает снятые тарифы.
type Counter interface {
	Add(float64)
}

type SchedulerService struct {
	repo      PlanRepository
	publisher Publisher
	access    Invalidator
	log       *slog.Logger
	expired   Counter
	window    time.Duration
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
// window горизонт, в пределах которого отправляются напоминания об окончании тарифа.
func NewSchedulerService(repo PlanRepository, publisher Publisher, access Invalidator, log *slog.Logger,
	expired Counter, window time.Duration) *SchedulerService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		access:    access,
		log:       log,
		expired:   expired,
		window:    window,
		now:       time.Now,
	}
}

// Run выполняет проход сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	s.Sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep снимает истёкшие тарифы и ставит в очередь напоминания о скором окончании.
func (s *SchedulerService) Sweep(ctx context.Context) {
	now := s.now().UTC()
	s.clearExpired(ctx, now)
	s.remindExpiring(ctx, now)
}

func (s *SchedulerService) clearExpired(ctx context.Context, now time.Time) {
	s.log.Info("starting sweep of expired plans")
	uids, err := s.repo.ClearExpiredPlans(ctx, now)
	if err != nil {
		s.log.Error("failed to clear expired plans", sl.Err(err))
		return
	}
	if len(uids) == 0 {
		s.log.Info("no expired plans found")
		return
	}
	s.access.Invalidate(ctx, uids...)
	if s.expired != nil {
		s.expired.Add(float64(len(uids)))
	}
	s.log.Info("expired plans cleared", "count", len(uids))
}

func (s *SchedulerService) remindExpiring(ctx context.Context, now time.Time) {
	users, err := s.repo.FindPlansExpiringBetween(ctx, now, now.Add(s.window))
	if err != nil {
		s.log.Error("failed to find expiring plans", sl.Err(err))
		return
	}
	if len(users) == 0 {
		s.log.Info("no expiring plans found")
		return
	}
	s.log.Info("found expiring plans", "count", len(users))
	for _, u := range users {
		if u.PlanExpiry == nil {
			continue
		}
		reminder := models.PlanReminder{
			UserUID:     u.UID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			PlanName:    u.PlanName,
			ExpiresAt:   *u.PlanExpiry,
		}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingKeyPlanExpiring, reminder); err != nil {
			s.log.Error("failed to publish message", slog.String("user_uid", u.UID), sl.Err(err))
			continue
		}
		if err := s.repo.MarkReminded(ctx, u.UID, *u.PlanExpiry); err != nil {
			s.log.Error("failed to mark reminder", slog.String("user_uid", u.UID), sl.Err(err))
		}
	}
}
