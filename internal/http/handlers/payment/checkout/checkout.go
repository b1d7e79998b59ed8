// Package checkout начинает оплату тарифа через Paystack.
package checkout

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
	"github.com/magabrotheeeer/trading-signals/internal/paymentprovider"
	"github.com/magabrotheeeer/trading-signals/internal/services/payment"
)

type Request struct {
	PlanName string `json:"plan_name" validate:"required"`
}

type Service interface {
	Checkout(ctx context.Context, uid, planName string) (*models.Checkout, error)
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
// @Summary Оплата тарифа
// @Description Создаёт транзакцию Paystack и возвращает ссылку на оплату.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Название тарифа"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неизвестный тариф"
// @Failure 502 {object} response.ErrorResponse "Ошибка провайдера"
// @Router /payments/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkout"
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
	res, err := h.service.Checkout(r.Context(), uid, req.PlanName)
	var apiErr *paymentprovider.APIError
	switch {
	case err == nil:
	case errors.Is(err, payment.ErrUnknownPlan):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(payment.ErrUnknownPlan.Error()))
		return
	case errors.Is(err, paymentprovider.ErrNotConfigured):
		log.Error("payment provider is not configured")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("payments are temporarily unavailable"))
		return
	case errors.As(err, &apiErr):
		log.Error("payment provider rejected checkout", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("payment provider error"))
		return
	default:
		log.Error("checkout failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not start payment"))
		return
	}

	log.Info("checkout created", slog.String("reference", res.Reference))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"checkout": res,
	}))
}
