// Package password смена пароля с повторной проверкой текущего.
package password

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

// MsgMismatch новый пароль и подтверждение не совпали.
const MsgMismatch = "New passwords do not match."

type Request struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type Service interface {
	ChangePassword(ctx context.Context, uid, current, next string) error
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
// @Summary Смена пароля
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Текущий, новый и подтверждение"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Пароли не совпадают"
// @Failure 401 {object} response.ErrorResponse "Неверный текущий пароль"
// @Router /me/password [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.password"
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
	if req.NewPassword != req.ConfirmPassword {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(MsgMismatch))
		return
	}

	uid, _ := middlewarectx.UserFromContext(r.Context())
	if err := h.authClient.ChangePassword(r.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		log.Error("failed to change password", sl.Err(err))
		code, msg := authcall.Status(err)
		render.Status(r, code)
		render.JSON(w, r, response.Error(msg))
		return
	}
	log.Info("password changed", slog.String("user_uid", uid))
	render.JSON(w, r, response.Message("Password updated successfully"))
}
