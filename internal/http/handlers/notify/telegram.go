// Package notify пересылает текст администратора в Telegram-чат.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/telegram"
)

const (
	MsgInvalidMessage = `Missing or invalid "message" in request body`
	MsgAPIError       = "Telegram API error"
	MsgSendFailed     = "Failed to send message"
	MsgSent           = "Message sent successfully"
)

type Request struct {
	Message *string `json:"message"`
}

type Messenger interface {
	SendMessage(ctx context.Context, text string) error
}

type Handler struct {
	log       *slog.Logger
	messenger Messenger
}

func New(log *slog.Logger, messenger Messenger) *Handler {
	return &Handler{log: log, messenger: messenger}
}

// ServeHTTP godoc
// @Summary Сообщение в Telegram
// @Tags Notify
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Текст сообщения"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /notify/telegram [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notify.telegram"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == nil || strings.TrimSpace(*req.Message) == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(MsgInvalidMessage))
		return
	}

	err := h.messenger.SendMessage(r.Context(), *req.Message)
	var apiErr *telegram.APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr):
		log.Error("telegram rejected message", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithDetails(MsgAPIError, apiErr.Description))
		return
	default:
		log.Error("failed to send telegram message", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(MsgSendFailed))
		return
	}

	log.Info("telegram message sent")
	render.JSON(w, r, response.Message(MsgSent))
}
