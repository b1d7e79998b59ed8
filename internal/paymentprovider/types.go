package paymentprovider

import "time"

// Статусы транзакции Paystack.
const (
	TransactionSuccess   = "success"
	TransactionFailed    = "failed"
	TransactionAbandoned = "abandoned"
)

// EventChargeSuccess событие вебхука об успешном списании.
const EventChargeSuccess = "charge.success"

// InitializeRequest запрос на создание транзакции. Amount в минимальных единицах валюты (kobo).
type InitializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// InitializeResponse данные для перехода на страницу оплаты.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction состояние транзакции, возвращаемое verify и вебхуком.
type Transaction struct {
	ID        int64             `json:"id"`
	Status    string            `json:"status"`
	Reference string            `json:"reference"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	PaidAt    *time.Time        `json:"paid_at"`
	Metadata  map[string]string `json:"metadata"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Successful сообщает, что списание прошло.
func (t *Transaction) Successful() bool {
	return t.Status == TransactionSuccess
}

// WebhookEvent тело вебхука Paystack.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
