// Package authcall переводит ошибки gRPC-сервиса авторизации в HTTP-статусы.
package authcall

import (
	"errors"
	"net/http"

	"github.com/magabrotheeeer/trading-signals/internal/grpc/client"
)

// Status возвращает HTTP-код и сообщение для ответа клиенту.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, client.ErrInvalidCredentials):
		return http.StatusUnauthorized, client.Message(err)
	case errors.Is(err, client.ErrAlreadyExists):
		return http.StatusConflict, client.Message(err)
	case errors.Is(err, client.ErrInvalidArgument):
		return http.StatusBadRequest, client.Message(err)
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound, client.Message(err)
	case errors.Is(err, client.ErrUnavailable):
		return http.StatusServiceUnavailable, "auth service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
