// Package profile чтение и изменение профиля пользователя.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/storage"
)

// ErrUserNotFound профиль не существует.
var ErrUserNotFound = errors.New("user not found")

// Repository хранилище пользователей.
type Repository interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	UpdateProfile(ctx context.Context, uid string, p models.ProfileUpdate) error
}

// PlanChecker проверяет действующий тариф.
type PlanChecker interface {
	HasActivePlan(ctx context.Context, uid string) (bool, error)
}

// Service профиль пользователя.
type Service struct {
	repo   Repository
	access PlanChecker
}

// New создаёт сервис профиля.
func New(repo Repository, access PlanChecker) *Service {
	return &Service{repo: repo, access: access}
}

// Get возвращает профиль. Поле плана у пользователя показывается только пока тариф действует.
func (s *Service) Get(ctx context.Context, uid string) (*models.Profile, error) {
	const op = "services.profile.Get"
	user, err := s.repo.GetUser(ctx, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	active, err := s.access.HasActivePlan(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !active {
		user.PlanName = ""
		user.PlanExpiry = nil
	}
	return &models.Profile{User: user, HasPlan: active}, nil
}

// Update сохраняет редактируемые поля профиля.
func (s *Service) Update(ctx context.Context, uid string, p models.ProfileUpdate) (*models.Profile, error) {
	const op = "services.profile.Update"
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.PhotoURL = strings.TrimSpace(p.PhotoURL)
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
	p.Bio = strings.TrimSpace(p.Bio)

	err := s.repo.UpdateProfile(ctx, uid, p)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.Get(ctx, uid)
}
