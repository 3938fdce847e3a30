// Package whatsapp sends text messages through the Meta WhatsApp Cloud API.
// Credentials are per tenant, so they are call parameters rather than client
// state.
package whatsapp

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

const defaultBaseURL = "https://graph.facebook.com/v17.0"

type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
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

// SendText posts a plain text message to a recipient phone number through the
// tenant's WhatsApp business number.
func (c *Client) SendText(ctx context.Context, phoneNumberID, accessToken, toPhone, text string) error {
	if toPhone == "" {
		return fmt.Errorf("whatsapp: empty recipient phone")
	}

	payload := textPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               toPhone,
		Type:             "text",
		Text:             textBody{Body: text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", formatAuthHeader(accessToken))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Debug("whatsapp sent", "phone", toPhone)
	return nil
}

func formatAuthHeader(accessToken string) string {
	if strings.HasPrefix(accessToken, "Bearer ") {
		return accessToken
	}
	return "Bearer " + accessToken
}
