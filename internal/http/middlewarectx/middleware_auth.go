// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов,
// ролей, тарифа и частоты запросов.
//
// JWTMiddleware проверяет токен из заголовка Authorization (или параметра token для
// веб-сокета), валидирует его через gRPC-сервис и кладёт в контекст uid, почту и роль.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trading-signals/internal/grpc/authpb"
	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID ключ для идентификатора пользователя в контексте
	UserUID Key = "user_uid"
	// Email ключ для почты пользователя в контексте
	Email Key = "email"
	// Role ключ для роли пользователя в контексте
	Role Key = "role"
)

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*authpb.ValidateTokenResponse, error)
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT.
// Если токен валиден, добавляет uid, почту и роль в контекст запроса,
// иначе отвечает 401 Unauthorized.
func JWTMiddleware(authClient Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := bearerToken(r)
			if tokenStr == "" {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			resp, err := authClient.ValidateToken(r.Context(), tokenStr)
			if err != nil || !resp.Valid {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), UserUID, resp.UserUid)
			ctx = context.WithValue(ctx, Email, resp.Email)
			ctx = context.WithValue(ctx, Role, resp.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext возвращает uid и роль, сохранённые JWTMiddleware.
func UserFromContext(ctx context.Context) (uid, role string) {
	uid, _ = ctx.Value(UserUID).(string)
	role, _ = ctx.Value(Role).(string)
	return uid, role
}

// EmailFromContext возвращает почту, сохранённую JWTMiddleware.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(Email).(string)
	return email
}
