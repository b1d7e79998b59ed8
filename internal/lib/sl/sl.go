// Package sl содержит вспомогательные атрибуты для slog.
package sl

import (
	"log/slog"
	"os"
)

// Err возвращает атрибут "error" с текстом ошибки. Для nil возвращает пустую строку.
//
//	log.Error("failed to publish signal", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Op возвращает атрибут "op" с именем операции.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}

// New текстовый логгер в stdout. Для окружения local включается уровень debug.
func New(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "local" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
