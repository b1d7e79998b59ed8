// Package list отдаёт историю комнаты сигналов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
)

type Service interface {
	List(ctx context.Context) ([]*models.Signal, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сигналы
// @Description Все сигналы по возрастанию времени. Нужен действующий тариф или роль admin.
// @Tags Signals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /signals [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signals.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	signals, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list signals", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load signals"))
		return
	}
	if signals == nil {
		signals = []*models.Signal{}
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"signals": signals,
	}))
}
