// Package create публикует новый сигнал администратора.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/trading-signals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/services/signal"
)

type Request struct {
	Text string `json:"text" validate:"required"`
}

type Service interface {
	Send(ctx context.Context, sender models.Sender, text string) (*models.Signal, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Отправить сигнал
// @Tags Signals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Текст сигнала"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /signals [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signals.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	uid, role := middlewarectx.UserFromContext(r.Context())
	sig, err := h.service.Send(r.Context(), models.Sender{UID: uid, Role: role}, req.Text)
	switch {
	case err == nil:
	case errors.Is(err, signal.ErrForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(signal.ErrForbidden.Error()))
		return
	case errors.Is(err, signal.ErrEmptyText):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(signal.ErrEmptyText.Error()))
		return
	default:
		log.Error("failed to send signal", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not send signal"))
		return
	}

	log.Info("signal sent", slog.Int64("signal_id", sig.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"signal": sig,
	}))
}
