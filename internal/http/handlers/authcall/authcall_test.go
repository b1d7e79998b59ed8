package authcall

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/trading-signals/internal/grpc/client"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
	}{
		{client.ErrInvalidCredentials, http.StatusUnauthorized},
		{client.ErrAlreadyExists, http.StatusConflict},
		{client.ErrInvalidArgument, http.StatusBadRequest},
		{client.ErrNotFound, http.StatusNotFound},
		{client.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, msg := Status(tt.err)
		assert.Equal(t, tt.wantCode, code, tt.err.Error())
		assert.NotEmpty(t, msg)
	}
}
