// Package confirm проверяет оплату по ссылке после возврата пользователя из Paystack.
package confirm

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
	"github.com/magabrotheeeer/trading-signals/internal/services/payment"
)

type Request struct {
	Reference string `json:"reference" validate:"required"`
}

type Service interface {
	Confirm(ctx context.Context, uid, reference string) (*models.Payment, error)
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
// @Summary Подтверждение оплаты
// @Description Сверяет транзакцию с Paystack. Пока оплата не прошла, платёж остаётся pending.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Ссылка платежа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Сумма не совпала"
// @Failure 500 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse "Paystack не ответил"
// @Router /payments/confirm [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.confirm"
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

	uid, _ := middlewarectx.UserFromContext(r.Context())
	p, err := h.service.Confirm(r.Context(), uid, req.Reference)
	switch {
	case err == nil:
	case errors.Is(err, payment.ErrPaymentNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(payment.ErrPaymentNotFound.Error()))
		return
	case errors.Is(err, payment.ErrAmountMismatch):
		log.Warn("payment rejected", slog.String("reference", req.Reference), sl.Err(err))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(payment.ErrAmountMismatch.Error()))
		return
	case errors.Is(err, payment.ErrGateway):
		log.Error("payment provider failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not verify payment"))
		return
	default:
		log.Error("confirm failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment": p,
		"paid":    p.GrantsAccess(),
	}))
}
