// Package webhook принимает события Paystack.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/paymentprovider"
	"github.com/magabrotheeeer/trading-signals/internal/services/payment"
)

const maxBody = 1 << 20

type Service interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Webhook Paystack
// @Description Подпись x-paystack-signature (HMAC-SHA512 тела). Обрабатывается только charge.success.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	err = h.service.HandleWebhook(r.Context(), body, r.Header.Get(paymentprovider.SignatureHeader))
	switch {
	case err == nil:
	case errors.Is(err, payment.ErrInvalidSignature):
		log.Error("invalid or missing webhook signature")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(payment.ErrInvalidSignature.Error()))
		return
	case errors.Is(err, payment.ErrInvalidPayload):
		log.Error("invalid webhook payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(payment.ErrInvalidPayload.Error()))
		return
	case errors.Is(err, payment.ErrAmountMismatch):
		// платёж уже помечен rejected, повторная доставка ничего не изменит
		log.Warn("webhook amount mismatch", sl.Err(err))
	default:
		log.Error("failed to process webhook", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process webhook"))
		return
	}
	render.JSON(w, r, response.Message("ok"))
}
