// Package sms is a mock SMS sender. No provider is wired yet: sends are
// logged and reported as successful so customers on the SMS path do not block
// the rest of the pipeline. This is a deliberate stub, not a bug.
package sms

import (
	"context"

	"citaplan_backend/platform/logger"
)

type Client struct {
	log *logger.Logger
}

func NewClient(log *logger.Logger) *Client {
	return &Client{log: log}
}

// Send logs the message and reports success without any network call.
func (c *Client) Send(_ context.Context, toPhone, text string) error {
	c.log.Info("sms send mock", "phone", toPhone, "message", text)
	return nil
}
