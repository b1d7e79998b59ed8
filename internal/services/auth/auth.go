// Package services содержит логику регистрации, входа и управления учётными данными.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/magabrotheeeer/trading-signals/internal/lib/jwt"
	"github.com/magabrotheeeer/trading-signals/internal/lib/password"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/storage"
)

var (
	// ErrInvalidCredentials неверная почта или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken почта уже занята другим пользователем.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidEmail почта пустая или некорректная.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrUserNotFound пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, uid string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, uid, passwordHash string) error
	UpdateCredentials(ctx context.Context, uid, displayName, email string) error
	SetRole(ctx context.Context, uid, role string) error
}

// LoginResult выданный токен и сведения о пользователе.
type LoginResult struct {
	Token   string
	Role    string
	UserUID string
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// NormalizeEmail обрезает пробелы и приводит почту к нижнему регистру.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Register создает пользователя с ролью "user" и без тарифа.
func (s *AuthService) Register(ctx context.Context, email, rawPassword, displayName string) (string, error) {
	const op = "services.auth.Register"
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err = password.Validate(rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: hashed,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         models.RoleUser,
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль пользователя и выдаёт JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*LoginResult, error) {
	const op = "services.auth.Login"
	user, err := s.authenticate(ctx, email, rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LoginResult{Token: token, Role: user.Role, UserUID: user.UID}, nil
}

func (s *AuthService) authenticate(ctx context.Context, email, rawPassword string) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ValidateToken проверяет JWT и возвращает пользователя из базы.
// Роль берётся из базы, поэтому её смена действует сразу, без перевыпуска токена.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	const op = "services.auth.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUser(ctx, claims.UserUID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, jwt.ErrInvalidToken)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ChangePassword меняет пароль после повторной проверки текущего.
func (s *AuthService) ChangePassword(ctx context.Context, uid, current, next string) error {
	const op = "services.auth.ChangePassword"
	user, err := s.users.GetUser(ctx, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, current); err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err = password.Validate(next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := password.GetHash(next)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.UpdatePassword(ctx, uid, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateCredentials меняет отображаемое имя и почту пользователя.
func (s *AuthService) UpdateCredentials(ctx context.Context, uid, displayName, email string) error {
	const op = "services.auth.UpdateCredentials"
	email, err := NormalizeEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = s.users.UpdateCredentials(ctx, uid, strings.TrimSpace(displayName), email)
	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		return fmt.Errorf("%s: %w", op, ErrEmailTaken)
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EnsureAdmin создаёт учётную запись администратора или повышает роль существующей.
// Пароль существующей учётной записи не меняется.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "services.auth.EnsureAdmin"
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role != models.RoleAdmin {
			if err = s.users.SetRole(ctx, user.UID, models.RoleAdmin); err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
		}
		return user.UID, nil
	case !errors.Is(err, storage.ErrNotFound):
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err = password.Validate(rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: hashed,
		DisplayName:  "Admin",
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}
