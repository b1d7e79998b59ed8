package models

import "time"

// Статусы платежа.
const (
	PaymentPending  = "pending"
	PaymentSuccess  = "success"
	PaymentRejected = "rejected"
	PaymentAssigned = "assigned-manually"
	PaymentRevoked  = "revoked"
)

// Payment запись об оплате или ручном назначении тарифа.
type Payment struct {
	ID         int64      `json:"id"`
	UserUID    string     `json:"uid"`
	Email      string     `json:"email"`
	Reference  string     `json:"reference"`
	PlanName   string     `json:"plan"`
	Amount     int64      `json:"amount"`
	Duration   string     `json:"duration"`
	Status     string     `json:"status"`
	Approved   *bool      `json:"approved,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	PlanExpiry *time.Time `json:"plan_expiry,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// GrantsAccess сообщает, даёт ли платёж доступ к сигналам.
func (p *Payment) GrantsAccess() bool {
	return p.Status == PaymentSuccess || p.Status == PaymentAssigned
}

// PaymentFilter параметры выборки платежей в админке.
// Пустой Status означает все статусы, Query ищет подстроку в uid или названии тарифа.
type PaymentFilter struct {
	Status string
	Query  string
}

// Checkout результат инициализации оплаты у провайдера.
type Checkout struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	Amount           int64  `json:"amount"`
	PlanName         string `json:"plan"`
}

// Stats сводка для панели администратора.
type Stats struct {
	TotalUsers         int `json:"total_users"`
	TotalPayments      int `json:"total_payments"`
	SuccessfulPayments int `json:"successful_payments"`
}
