package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/trading-signals/internal/models"
)

const userColumns = `uid, email, password_hash, display_name, photo_url, phone_number, bio,
	role, plan_name, plan_expiry, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u          models.User
		planName   sql.NullString
		planExpiry sql.NullTime
	)
	if err := row.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.PhotoURL,
		&u.PhoneNumber, &u.Bio, &u.Role, &planName, &planExpiry, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.PlanName = planName.String
	if planExpiry.Valid {
		t := planExpiry.Time
		u.PlanExpiry = &t
	}
	return &u, nil
}

func (s *Storage) queryUsers(ctx context.Context, op, query string, args ...any) ([]*models.User, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateUser сохраняет пользователя и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	query := `INSERT INTO users (email, password_hash, display_name, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid`
	var uid string
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.DisplayName, user.Role).Scan(&uid); err != nil {
		return "", wrap(op, err)
	}
	return uid, nil
}

// GetUser возвращает пользователя по UID.
func (s *Storage) GetUser(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, uid))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// GetUserByEmail ищет пользователя по почте без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.queryUsers(ctx, op, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
}

// SetRole меняет роль пользователя.
func (s *Storage) SetRole(ctx context.Context, uid, role string) error {
	const op = "storage.SetRole"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	return s.execOne(ctx, op, `UPDATE users SET role = $1, updated_at = now() WHERE uid = $2`, role, uid)
}

// UpdateProfile сохраняет поля профиля.
func (s *Storage) UpdateProfile(ctx context.Context, uid string, p models.ProfileUpdate) error {
	const op = "storage.UpdateProfile"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	query := `UPDATE users
			  SET display_name = $1, photo_url = $2, phone_number = $3, bio = $4, updated_at = now()
			  WHERE uid = $5`
	return s.execOne(ctx, op, query, p.DisplayName, p.PhotoURL, p.PhoneNumber, p.Bio, uid)
}

// UpdateCredentials меняет отображаемое имя и почту.
func (s *Storage) UpdateCredentials(ctx context.Context, uid, displayName, email string) error {
	const op = "storage.UpdateCredentials"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	query := `UPDATE users SET display_name = $1, email = $2, updated_at = now() WHERE uid = $3`
	return s.execOne(ctx, op, query, displayName, email, uid)
}

// UpdatePassword сохраняет новый хеш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, uid, passwordHash string) error {
	const op = "storage.UpdatePassword"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	return s.execOne(ctx, op, `UPDATE users SET password_hash = $1, updated_at = now() WHERE uid = $2`,
		passwordHash, uid)
}

// ListActiveSubscribers возвращает пользователей с действующим на момент now тарифом.
func (s *Storage) ListActiveSubscribers(ctx context.Context, now time.Time) ([]*models.User, error) {
	const op = "storage.ListActiveSubscribers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT ` + userColumns + ` FROM users
			  WHERE plan_name IS NOT NULL AND plan_expiry > $1
			  ORDER BY plan_expiry`
	return s.queryUsers(ctx, op, query, now)
}

// ClearExpiredPlans снимает тарифы, истёкшие к моменту now, и возвращает UID затронутых пользователей.
func (s *Storage) ClearExpiredPlans(ctx context.Context, now time.Time) ([]string, error) {
	const op = "storage.ClearExpiredPlans"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users
			  SET plan_name = NULL, plan_expiry = NULL, updated_at = now()
			  WHERE plan_expiry IS NOT NULL AND plan_expiry <= $1
			  RETURNING uid`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		uids = append(uids, uid)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return uids, nil
}

// FindPlansExpiringBetween возвращает пользователей, чей тариф истекает в (from, to]
// и о ком ещё не отправлено напоминание для текущей даты окончания.
func (s *Storage) FindPlansExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	const op = "storage.FindPlansExpiringBetween"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT ` + userColumns + ` FROM users
			  WHERE plan_name IS NOT NULL
			    AND plan_expiry > $1 AND plan_expiry <= $2
			    AND reminded_for IS DISTINCT FROM plan_expiry
			  ORDER BY plan_expiry`
	return s.queryUsers(ctx, op, query, from, to)
}

// MarkReminded запоминает, что напоминание для даты окончания expiry отправлено.
func (s *Storage) MarkReminded(ctx context.Context, uid string, expiry time.Time) error {
	const op = "storage.MarkReminded"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	return s.execOne(ctx, op, `UPDATE users SET reminded_for = $1 WHERE uid = $2`, expiry, uid)
}

func (s *Storage) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return wrap(op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
