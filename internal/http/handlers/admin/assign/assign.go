// Package assign вручную выдаёт тариф пользователю по почте.
package assign

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/services/admin"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	PlanName string `json:"plan_name" validate:"required"`
}

type Service interface {
	Assign(ctx context.Context, email, planName string) (*models.Payment, error)
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
// @Summary Выдать тариф
// @Description Тариф действует с текущего момента на число дней тарифа, платёж сохраняется со статусом assigned-manually.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Почта пользователя и тариф"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/plans/assign [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.assign"
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

	p, err := h.service.Assign(r.Context(), req.Email, req.PlanName)
	switch {
	case err == nil:
	case errors.Is(err, admin.ErrUserNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(admin.ErrUserNotFound.Error()))
		return
	case errors.Is(err, admin.ErrUnknownPlan):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(admin.ErrUnknownPlan.Error()))
		return
	default:
		log.Error("failed to assign plan", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not assign plan"))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment": p,
	}))
}
