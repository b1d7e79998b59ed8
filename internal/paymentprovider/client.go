// Package paymentprovider клиент платёжного шлюза Paystack.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured секретный ключ Paystack не задан.
var ErrNotConfigured = errors.New("paystack is not configured")

// APIError ответ Paystack со status=false или кодом, отличным от 2xx.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: status %d: %s", e.StatusCode, e.Message)
}

// Client вызывает REST API Paystack.
type Client struct {
	secretKey   string
	apiURL      string
	callbackURL string
	httpClient  *http.Client
}

// NewClient создаёт новый клиент Paystack.
func NewClient(secretKey, apiURL, callbackURL string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		secretKey:   secretKey,
		apiURL:      strings.TrimRight(apiURL, "/"),
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func do[T any](c *Client, req *http.Request) (T, error) {
	var zero T
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return zero, err
	}
	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode/100 != 2 {
			return zero, &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		return zero, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode/100 != 2 || !env.Status {
		return zero, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}

// Initialize создаёт транзакцию и возвращает ссылку на оплату.
func (c *Client) Initialize(ctx context.Context, in InitializeRequest) (*InitializeResponse, error) {
	const op = "paymentprovider.Initialize"
	if c.secretKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}
	if in.CallbackURL == "" {
		in.CallbackURL = c.callbackURL
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/transaction/initialize", in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := do[InitializeResponse](c, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// Verify запрашивает актуальный статус транзакции по reference.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	const op = "paymentprovider.Verify"
	if c.secretKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := do[Transaction](c, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}
