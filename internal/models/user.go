// Package models содержит доменные типы: пользователей, платежи, сигналы и статус доступа.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User учётная запись пользователя вместе с текущим тарифом.
type User struct {
	UID          string     `json:"uid"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"display_name"`
	PhotoURL     string     `json:"photo_url,omitempty"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	Role         string     `json:"role"`
	PlanName     string     `json:"plan,omitempty"`
	PlanExpiry   *time.Time `json:"plan_expiry,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ProfileUpdate изменяемые поля профиля.
type ProfileUpdate struct {
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
	PhoneNumber string `json:"phone_number"`
	Bio         string `json:"bio"`
}

// PlanReminder сообщение о скором окончании тарифа.
type PlanReminder struct {
	UserUID     string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	PlanName    string    `json:"plan"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Profile пользователь вместе с вычисленным признаком действующего тарифа.
type Profile struct {
	*User
	HasPlan bool `json:"has_plan"`
}
