// Package payments отдаёт платежи с фильтром по статусу и поиском.
package payments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
	"github.com/magabrotheeeer/trading-signals/internal/services/admin"
)

type Service interface {
	Payments(ctx context.Context, status, query string) ([]*models.Payment, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Платежи
// @Description Сортировка по дате оплаты, новые первыми. q ищет подстроку в uid или названии тарифа.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "all, pending, success, rejected"
// @Param q query string false "Поиск"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.payments"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	list, err := h.service.Payments(r.Context(), q.Get("status"), q.Get("q"))
	if errors.Is(err, admin.ErrInvalidStatus) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(admin.ErrInvalidStatus.Error()))
		return
	}
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load payments"))
		return
	}
	if list == nil {
		list = []*models.Payment{}
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payments": list,
	}))
}
