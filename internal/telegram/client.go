// Package telegram implements a minimal Bot API client used as the deletion
// notification sink. Only sendMessage is needed; delivery is fire-and-forget
// and failures are reported to the caller for logging, never retried here.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Client sends messages on behalf of one bot.
type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
}

// NewClient returns a Client for the given bot token.
func NewClient(token string, timeout time.Duration) *Client {
	return NewClientWithBaseURL(token, defaultBaseURL, timeout)
}

// NewClientWithBaseURL is NewClient with an overridable API host, for tests.
func NewClientWithBaseURL(token, baseURL string, timeout time.Duration) *Client {
	return &Client{
		token:   token,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage delivers text to the chat (user or group) with the given ID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sendMessage to %d: %s; body: %s", chatID, resp.Status, string(b))
	}

	var r sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return err
	}
	if !r.OK {
		return fmt.Errorf("sendMessage to %d: %s", chatID, r.Description)
	}
	return nil
}
