// Package remove удаляет сигнал из комнаты.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trading-signals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/services/signal"
)

type Service interface {
	Delete(ctx context.Context, sender models.Sender, id int64) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить сигнал
// @Tags Signals
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID сигнала"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /signals/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signals.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signal id"))
		return
	}

	uid, role := middlewarectx.UserFromContext(r.Context())
	err = h.service.Delete(r.Context(), models.Sender{UID: uid, Role: role}, id)
	switch {
	case err == nil:
	case errors.Is(err, signal.ErrForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(signal.ErrForbidden.Error()))
		return
	case errors.Is(err, signal.ErrSignalNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(signal.ErrSignalNotFound.Error()))
		return
	default:
		log.Error("failed to delete signal", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not delete signal"))
		return
	}

	log.Info("signal deleted", slog.Int64("signal_id", id))
	render.JSON(w, r, response.Message("signal deleted"))
}
