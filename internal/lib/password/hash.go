// Package password хеширует и проверяет пароли пользователей через bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinLength минимальная длина пароля, принимаемая при регистрации и смене пароля.
	MinLength = 6
	// MaxLength предел bcrypt в байтах.
	MaxLength = 72
)

var (
	// ErrTooShort возвращается, если пароль короче MinLength.
	ErrTooShort = errors.New("password must be at least 6 characters")
	// ErrTooLong возвращается, если пароль длиннее MaxLength байт.
	ErrTooLong = errors.New("password must be at most 72 bytes")
	// ErrMismatch возвращается, если пароль не совпадает с хешем.
	ErrMismatch = errors.New("password does not match")
)

// Validate проверяет, что пароль подходит для сохранения.
func Validate(raw string) error {
	if len(raw) < MinLength {
		return ErrTooShort
	}
	if len(raw) > MaxLength {
		return ErrTooLong
	}
	return nil
}

// GetHash возвращает bcrypt-хеш пароля.
func GetHash(raw string) (string, error) {
	const op = "password.GetHash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash сверяет пароль с хешем. При несовпадении возвращает ErrMismatch.
func CompareHash(hash, raw string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
