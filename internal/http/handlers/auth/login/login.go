// Package login реализует HTTP-обработчики входа пользователя и администратора.
//
// Проверка пароля и выпуск JWT выполняются gRPC-сервисом авторизации; вход в панель
// администратора дополнительно требует роль admin.
package login

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/trading-signals/internal/grpc/authpb"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/authcall"
	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
)

// MsgNotAdmin ответ на попытку входа в панель без прав администратора.
const MsgNotAdmin = "Unauthorized: You are not an admin."

// Request входные данные для авторизации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log        *slog.Logger        // Логгер для записи операций и ошибок
	authClient Service             // Клиент для вызова gRPC-сервиса аутентификации
	validate   *validator.Validate // Валидатор для проверки входных данных
	adminOnly  bool
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (*authpb.LoginResponse, error)
}

// New создает обработчик входа пользователя.
func New(log *slog.Logger, authClient Service) *Handler {
	return &Handler{
		log:        log,
		authClient: authClient,
		validate:   validator.New(),
	}
}

// NewAdmin создает обработчик входа в панель администратора.
func NewAdmin(log *slog.Logger, authClient Service) *Handler {
	h := New(log, authClient)
	h.adminOnly = true
	return h
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по почте и паролю. Возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Router /login [post]
// @Router /admin/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Bool("admin", h.adminOnly),
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

	grpcResp, err := h.authClient.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("login failed", sl.Err(err))
		code, msg := authcall.Status(err)
		render.Status(r, code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	if h.adminOnly && grpcResp.Role != models.RoleAdmin {
		log.Warn("admin login denied", slog.String("user_uid", grpcResp.UserUid))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(MsgNotAdmin))
		return
	}

	log.Info("login success", slog.String("user_uid", grpcResp.UserUid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": grpcResp.Token,
		"role":  grpcResp.Role,
		"uid":   grpcResp.UserUid,
	}))
}
