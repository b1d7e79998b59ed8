// Package revoke снимает тариф с пользователя.
package revoke

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/services/admin"
)

type Request struct {
	UID       string `json:"uid"`
	PaymentID int64  `json:"payment_id"`
}

type Service interface {
	Revoke(ctx context.Context, uid string, paymentID int64) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отозвать тариф
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "UID пользователя и ID платежа"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Не заданы поля или uid не uuid"
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/plans/revoke [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.revoke"
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

	err := h.service.Revoke(r.Context(), req.UID, req.PaymentID)
	switch {
	case err == nil:
	case errors.Is(err, admin.ErrMissingFields):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(admin.ErrMissingFields.Error()))
		return
	case errors.Is(err, admin.ErrInvalidUID):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(admin.ErrInvalidUID.Error()))
		return
	case errors.Is(err, admin.ErrPaymentNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(admin.ErrPaymentNotFound.Error()))
		return
	default:
		log.Error("failed to revoke plan", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not revoke plan"))
		return
	}

	render.JSON(w, r, response.Message("plan revoked"))
}
