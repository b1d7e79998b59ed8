// Package credentials меняет отображаемое имя и почту через сервис авторизации.
package credentials

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/authcall"
	"github.com/magabrotheeeer/trading-signals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
)

type Request struct {
	DisplayName string `json:"display_name" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
}

type Service interface {
	UpdateCredentials(ctx context.Context, uid, displayName, email string) error
}

type Handler struct {
	log        *slog.Logger
	authClient Service
	validate   *validator.Validate
}

func New(log *slog.Logger, authClient Service) *Handler {
	return &Handler{log: log, authClient: authClient, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Смена имени и почты
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Имя и почта"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Почта уже занята"
// @Router /me/account [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.credentials"
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
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	uid, _ := middlewarectx.UserFromContext(r.Context())
	if err := h.authClient.UpdateCredentials(r.Context(), uid, req.DisplayName, req.Email); err != nil {
		log.Error("failed to update credentials", sl.Err(err))
		code, msg := authcall.Status(err)
		render.Status(r, code)
		render.JSON(w, r, response.Error(msg))
		return
	}
	log.Info("credentials updated", slog.String("user_uid", uid))
	render.JSON(w, r, response.Message("Account updated successfully"))
}
