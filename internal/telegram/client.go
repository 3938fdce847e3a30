// Package telegram sends messages through the Telegram Bot API. The bot token
// is per tenant, so it is a call parameter rather than client state.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"citaplan_backend/platform/logger"
)

const defaultBaseURL = "https://api.telegram.org"

type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

type sendMessagePayload struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func NewClient(log *logger.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// NewClientWithBaseURL allows overriding the API endpoint, used in tests.
func NewClientWithBaseURL(baseURL string, log *logger.Logger) *Client {
	c := NewClient(log)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// SendMessage posts a text message to a chat through the tenant's bot.
func (c *Client) SendMessage(ctx context.Context, botToken, chatID, text string) error {
	if chatID == "" {
		return fmt.Errorf("telegram: empty chat id")
	}

	body, err := json.Marshal(sendMessagePayload{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Debug("telegram sent", "chat_id", chatID)
	return nil
}
