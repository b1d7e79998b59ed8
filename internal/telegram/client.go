// Package telegram отправляет сообщения в чат через Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/trading-signals/internal/config"
)

// ErrNotConfigured токен бота или идентификатор чата не заданы.
var ErrNotConfigured = errors.New("telegram bot token or chat id is not set")

// APIError ответ Telegram с ok=false.
type APIError struct {
	Code        int    `json:"error_code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Client бот, пишущий в один чат.
type Client struct {
	token      string
	chatID     string
	apiURL     string
	httpClient *http.Client
}

// New создаёт клиента по настройкам Telegram.
func New(cfg config.Telegram) *Client {
	apiURL := cfg.TelegramAPIURL
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	timeout := cfg.TelegramTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		token:      cfg.TelegramBotToken,
		chatID:     cfg.TelegramChatID,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured сообщает, заданы ли токен и чат.
func (c *Client) Configured() bool {
	return c.token != "" && c.chatID != ""
}

// SendMessage отправляет text в чат с разметкой Markdown.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	const op = "telegram.SendMessage"
	if !c.Configured() {
		return fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: c.chatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("%s: decode response (status %d): %w", op, resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("%s: %w", op, &APIError{Code: out.ErrorCode, Description: out.Description})
	}
	return nil
}
