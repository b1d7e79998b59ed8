// Package stream подключает пользователя к комнате сигналов по websocket.
package stream

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/trading-signals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trading-signals/internal/hub"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
)

// RecheckInterval как часто проверяется, не истёк ли тариф у подключённого клиента.
const RecheckInterval = 60 * time.Second

type Server interface {
	Serve(w http.ResponseWriter, r *http.Request, userUID string, check hub.AccessCheck, every time.Duration) error
}

type PlanChecker interface {
	HasActivePlan(ctx context.Context, uid string) (bool, error)
}

type Handler struct {
	log     *slog.Logger
	hub     Server
	checker PlanChecker
	every   time.Duration
}

func New(log *slog.Logger, hub Server, checker PlanChecker) *Handler {
	return &Handler{log: log, hub: hub, checker: checker, every: RecheckInterval}
}

// ServeHTTP godoc
// @Summary Поток сигналов
// @Description Websocket. Токен передаётся в заголовке Authorization или в параметре token.
// @Tags Signals
// @Security BearerAuth
// @Param token query string false "JWT"
// @Success 101
// @Failure 403 {object} response.ErrorResponse
// @Router /signals/ws [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signals.stream"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, role := middlewarectx.UserFromContext(r.Context())
	check := func(ctx context.Context) (bool, error) {
		if role == models.RoleAdmin {
			return true, nil
		}
		return h.checker.HasActivePlan(ctx, uid)
	}

	if err := h.hub.Serve(w, r, uid, check, h.every); err != nil {
		log.Error("websocket upgrade failed", sl.Err(err))
		return
	}
	log.Info("client joined signal room", slog.String("user_uid", uid))
}
