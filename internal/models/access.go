package models

import "time"

// PlanStatus текущее состояние доступа пользователя.
type PlanStatus struct {
	HasPlan   bool       `json:"has_plan"`
	PlanName  string     `json:"plan,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Payment   *Payment   `json:"payment,omitempty"`
}

// Subscription сведения о последней оплате для страницы подписки.
type Subscription struct {
	PlanName string     `json:"plan"`
	Amount   int64      `json:"amount"`
	Duration string     `json:"duration"`
	PaidOn   *time.Time `json:"paid_on,omitempty"`
	EndsOn   *time.Time `json:"ends_on,omitempty"`
	Active   bool       `json:"active"`
	Status   string     `json:"status"`
}
