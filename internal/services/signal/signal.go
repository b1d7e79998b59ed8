// Package signal управляет комнатой сигналов: публикация, удаление и чтение.
package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/rabbitmq"
	"github.com/magabrotheeeer/trading-signals/internal/storage"
)

var (
	ErrForbidden      = errors.New("only admins can send signals")
	ErrEmptyText      = errors.New("signal text is empty")
	ErrSignalNotFound = errors.New("signal not found")
)

// Repository хранилище сигналов.
type Repository interface {
	CreateSignal(ctx context.Context, text, senderUID, senderRole string) (*models.Signal, error)
	ListSignals(ctx context.Context) ([]*models.Signal, error)
	DeleteSignal(ctx context.Context, id int64) (*models.Signal, error)
}

// Broadcaster рассылает события подключённым клиентам.
type Broadcaster interface {
	Broadcast(msg any)
}

// Publisher отправляет сообщение в очередь уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Counter учитывает отправленные сигналы.
type Counter interface {
	Inc()
}

// Service сценарии комнаты сигналов.
type Service struct {
	repo      Repository
	hub       Broadcaster
	publisher Publisher
	log       *slog.Logger
	published Counter
}

// New создаёт сервис. publisher и published могут быть nil.
func New(repo Repository, hub Broadcaster, publisher Publisher, log *slog.Logger, published Counter) *Service {
	return &Service{
		repo:      repo,
		hub:       hub,
		publisher: publisher,
		log:       log,
		published: published,
	}
}

// List возвращает все сигналы от старых к новым.
func (s *Service) List(ctx context.Context) ([]*models.Signal, error) {
	const op = "services.signal.List"
	list, err := s.repo.ListSignals(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Send сохраняет сигнал администратора, рассылает его в комнату и ставит уведомление в очередь.
// Ошибка очереди не отменяет отправку.
func (s *Service) Send(ctx context.Context, sender models.Sender, text string) (*models.Signal, error) {
	const op = "services.signal.Send"
	if sender.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyText)
	}

	sig, err := s.repo.CreateSignal(ctx, text, sender.UID, sender.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.hub.Broadcast(models.SignalEvent{Type: models.EventSignalCreated, Signal: sig})
	if s.published != nil {
		s.published.Inc()
	}

	if s.publisher != nil {
		msg := models.SignalNotification{SignalID: sig.ID, Text: sig.Text, CreatedAt: sig.CreatedAt}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingKeySignal, msg); err != nil {
			s.log.Error("failed to queue signal notification", sl.Op(op), sl.Err(err),
				slog.Int64("signal_id", sig.ID))
		}
	}
	return sig, nil
}

// Delete удаляет сигнал и сообщает об этом клиентам комнаты.
func (s *Service) Delete(ctx context.Context, sender models.Sender, id int64) error {
	const op = "services.signal.Delete"
	if sender.Role != models.RoleAdmin {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	sig, err := s.repo.DeleteSignal(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrSignalNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.hub.Broadcast(models.SignalEvent{Type: models.EventSignalDeleted, Signal: sig})
	return nil
}
