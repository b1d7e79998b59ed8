// Package review одобряет или отклоняет ожидающий платёж.
package review

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/plans"
	"github.com/magabrotheeeer/trading-signals/internal/services/admin"
)

type Service interface {
	Approve(ctx context.Context, id int64) (*models.Payment, error)
	Reject(ctx context.Context, id int64) (*models.Payment, error)
}

type Handler struct {
	log    *slog.Logger
	op     string
	decide func(ctx context.Context, id int64) (*models.Payment, error)
}

// NewApprove обработчик одобрения: платёж становится success, пользователю назначается тариф.
func NewApprove(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, op: "handlers.admin.approve", decide: service.Approve}
}

// NewReject обработчик отклонения.
func NewReject(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, op: "handlers.admin.reject", decide: service.Reject}
}

// ServeHTTP godoc
// @Summary Одобрить или отклонить платёж
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID платежа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Платёж не в статусе pending"
// @Router /admin/payments/{id}/approve [post]
// @Router /admin/payments/{id}/reject [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", h.op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payment id"))
		return
	}

	p, err := h.decide(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, admin.ErrPaymentNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(admin.ErrPaymentNotFound.Error()))
		return
	case errors.Is(err, admin.ErrNotPending):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(admin.ErrNotPending.Error()))
		return
	case errors.Is(err, plans.ErrInvalidDuration):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("Invalid duration"))
		return
	default:
		log.Error("failed to review payment", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update payment"))
		return
	}

	log.Info("payment reviewed", slog.Int64("payment_id", id), slog.String("status", p.Status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment": p,
	}))
}
