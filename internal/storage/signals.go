package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/trading-signals/internal/models"
)

// CreateSignal сохраняет сигнал с серверной меткой времени.
func (s *Storage) CreateSignal(ctx context.Context, text, senderUID, senderRole string) (*models.Signal, error) {
	const op = "storage.CreateSignal"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO signals (text, sender_uid, sender_role)
			  VALUES ($1, $2, $3)
			  RETURNING id, text, sender_uid, sender_role, created_at`
	var sig models.Signal
	if err := s.DB.QueryRowContext(ctx, query, text, senderUID, senderRole).
		Scan(&sig.ID, &sig.Text, &sig.SenderUID, &sig.SenderRole, &sig.CreatedAt); err != nil {
		return nil, wrap(op, err)
	}
	return &sig, nil
}

// ListSignals возвращает сигналы в порядке отправки.
func (s *Storage) ListSignals(ctx context.Context) ([]*models.Signal, error) {
	const op = "storage.ListSignals"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, text, sender_uid, sender_role, created_at
			  FROM signals ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Signal, 0)
	for rows.Next() {
		var sig models.Signal
		if err := rows.Scan(&sig.ID, &sig.Text, &sig.SenderUID, &sig.SenderRole, &sig.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &sig)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteSignal удаляет сигнал и возвращает удалённую запись.
func (s *Storage) DeleteSignal(ctx context.Context, id int64) (*models.Signal, error) {
	const op = "storage.DeleteSignal"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var sig models.Signal
	err := s.DB.QueryRowContext(ctx, `DELETE FROM signals WHERE id = $1
			  RETURNING id, text, sender_uid, sender_role, created_at`, id).
		Scan(&sig.ID, &sig.Text, &sig.SenderUID, &sig.SenderRole, &sig.CreatedAt)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &sig, nil
}
