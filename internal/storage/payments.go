package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/trading-signals/internal/models"
)

// ErrConflict запись находится в состоянии, не допускающем изменение.
var ErrConflict = errors.New("conflict")

const paymentColumns = `id, user_uid, email, reference, plan_name, amount, duration, status,
	approved, paid_at, plan_expiry, created_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var (
		p          models.Payment
		approved   sql.NullBool
		paidAt     sql.NullTime
		planExpiry sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.UserUID, &p.Email, &p.Reference, &p.PlanName, &p.Amount,
		&p.Duration, &p.Status, &approved, &paidAt, &planExpiry, &p.CreatedAt); err != nil {
		return nil, err
	}
	if approved.Valid {
		v := approved.Bool
		p.Approved = &v
	}
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	if planExpiry.Valid {
		t := planExpiry.Time
		p.PlanExpiry = &t
	}
	return &p, nil
}

func (s *Storage) queryPayments(ctx context.Context, op, query string, args ...any) ([]*models.Payment, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreatePayment сохраняет платёж и возвращает его ID.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (int64, error) {
	const op = "storage.CreatePayment"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	return insertPayment(ctx, s.DB, op, p)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertPayment(ctx context.Context, q queryRower, op string, p models.Payment) (int64, error) {
	query := `INSERT INTO payments (user_uid, email, reference, plan_name, amount, duration,
			      status, approved, paid_at, plan_expiry)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var id int64
	if err := q.QueryRowContext(ctx, query, p.UserUID, p.Email, p.Reference, p.PlanName, p.Amount,
		p.Duration, p.Status, p.Approved, p.PaidAt, p.PlanExpiry).Scan(&id); err != nil {
		return 0, wrap(op, err)
	}
	return id, nil
}

// GetPayment возвращает платёж по ID.
func (s *Storage) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "storage.GetPayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	p, err := scanPayment(s.DB.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// GetPaymentByReference возвращает платёж по ссылке провайдера.
func (s *Storage) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	const op = "storage.GetPaymentByReference"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	p, err := scanPayment(s.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE reference = $1`, reference))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// CompletePayment переводит ожидающий платёж в success и выставляет пользователю тариф до expiry.
// Возвращает ErrConflict, если платёж уже не в статусе pending.
func (s *Storage) CompletePayment(ctx context.Context, id int64, paidAt, expiry time.Time) error {
	const op = "storage.CompletePayment"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var userUID, planName string
	err = tx.QueryRowContext(ctx, `UPDATE payments
			  SET status = $1, approved = TRUE, paid_at = $2, plan_expiry = $3
			  WHERE id = $4 AND status = $5
			  RETURNING user_uid, plan_name`,
		models.PaymentSuccess, paidAt, expiry, id, models.PaymentPending).Scan(&userUID, &planName)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE users
			  SET plan_name = $1, plan_expiry = $2, updated_at = now()
			  WHERE uid = $3`, planName, expiry, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RejectPayment отклоняет ожидающий платёж.
func (s *Storage) RejectPayment(ctx context.Context, id int64) error {
	const op = "storage.RejectPayment"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	err := s.execOne(ctx, op, `UPDATE payments SET status = $1, approved = FALSE
			  WHERE id = $2 AND status = $3`, models.PaymentRejected, id, models.PaymentPending)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return err
}

// AssignPlan вручную выдаёт пользователю тариф: создаёт платёж assigned-manually и обновляет пользователя.
func (s *Storage) AssignPlan(ctx context.Context, p models.Payment) (int64, error) {
	const op = "storage.AssignPlan"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	if p.PlanExpiry == nil {
		return 0, fmt.Errorf("%s: plan expiry is required", op)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	id, err := insertPayment(ctx, tx, op, p)
	if err != nil {
		return 0, err
	}
	result, err := tx.ExecContext(ctx, `UPDATE users
			  SET plan_name = $1, plan_expiry = $2, updated_at = now()
			  WHERE uid = $3`, p.PlanName, *p.PlanExpiry, p.UserUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// RevokePlan снимает тариф с пользователя и помечает платёж как revoked.
func (s *Storage) RevokePlan(ctx context.Context, uid string, paymentID int64) error {
	const op = "storage.RevokePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, `UPDATE payments SET status = $1
			  WHERE id = $2 AND user_uid = $3`, models.PaymentRevoked, paymentID, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE users
			  SET plan_name = NULL, plan_expiry = NULL, updated_at = now()
			  WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LatestAccessPayment возвращает дающий доступ платёж пользователя с самой поздней датой окончания.
func (s *Storage) LatestAccessPayment(ctx context.Context, uid string) (*models.Payment, error) {
	const op = "storage.LatestAccessPayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_uid = $1 AND status IN ($2, $3)
			  ORDER BY plan_expiry DESC NULLS LAST, paid_at DESC NULLS LAST
			  LIMIT 1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, uid, models.PaymentSuccess, models.PaymentAssigned))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// LatestPaidPayment возвращает последний по дате оплаты дающий доступ платёж.
func (s *Storage) LatestPaidPayment(ctx context.Context, uid string) (*models.Payment, error) {
	const op = "storage.LatestPaidPayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_uid = $1 AND status IN ($2, $3)
			  ORDER BY paid_at DESC NULLS LAST, created_at DESC
			  LIMIT 1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, uid, models.PaymentSuccess, models.PaymentAssigned))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// ListUserPayments возвращает историю дающих доступ платежей пользователя, новые первыми.
func (s *Storage) ListUserPayments(ctx context.Context, uid string) ([]*models.Payment, error) {
	const op = "storage.ListUserPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_uid = $1 AND status IN ($2, $3)
			  ORDER BY paid_at DESC NULLS LAST, created_at DESC`
	return s.queryPayments(ctx, op, query, uid, models.PaymentSuccess, models.PaymentAssigned)
}

// ListPayments возвращает платежи по фильтру, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		conds = append(conds, fmt.Sprintf("(user_uid::text ILIKE $%d OR plan_name ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY paid_at DESC NULLS LAST, created_at DESC`

	return s.queryPayments(ctx, op, query, args...)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Stats считает пользователей, все платежи и успешные платежи.
func (s *Storage) Stats(ctx context.Context) (*models.Stats, error) {
	const op = "storage.Stats"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var st models.Stats
	err := s.DB.QueryRowContext(ctx, `SELECT
			  (SELECT count(*) FROM users),
			  (SELECT count(*) FROM payments),
			  (SELECT count(*) FROM payments WHERE status = $1)`, models.PaymentSuccess).
		Scan(&st.TotalUsers, &st.TotalPayments, &st.SuccessfulPayments)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &st, nil
}
