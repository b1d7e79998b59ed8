package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "empty", raw: "", wantErr: ErrTooShort},
		{name: "five chars", raw: "abcde", wantErr: ErrTooShort},
		{name: "exactly six", raw: "abcdef", wantErr: nil},
		{name: "long", raw: "correct horse battery staple", wantErr: nil},
		{name: "bcrypt limit", raw: strings.Repeat("a", MaxLength), wantErr: nil},
		{name: "over bcrypt limit", raw: strings.Repeat("a", MaxLength+1), wantErr: ErrTooLong},
		{name: "multibyte over limit", raw: strings.Repeat("я", 37), wantErr: ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.raw), tt.wantErr)
		})
	}
}

func TestGetHashAndCompare(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "regular password", password: "password123"},
		{name: "special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "unicode", password: "пароль-2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)

			assert.NoError(t, CompareHash(hash, tt.password))
			assert.ErrorIs(t, CompareHash(hash, tt.password+"x"), ErrMismatch)
		})
	}
}

func TestGetHash_Salted(t *testing.T) {
	first, err := GetHash("same-password")
	require.NoError(t, err)
	second, err := GetHash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCompareHash_BrokenHash(t *testing.T) {
	err := CompareHash("not-a-bcrypt-hash", "password")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}
