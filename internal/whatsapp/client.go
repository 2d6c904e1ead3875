package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Provider-imposed payload limits.
const (
	MaxTextLength    = 4096
	MaxCaptionLength = 1024
)

// Client sends outbound messages through the Meta Graph API. Send failures
// are logged and reported as a boolean: a lost reply must never fail the
// command that triggered it.
type Client struct {
	token         string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	log           *slog.Logger
}

func NewClient(token, phoneNumberID, baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		token:         token,
		phoneNumberID: phoneNumberID,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// SendText delivers a text message, truncating the body to the provider limit.
func (c *Client) SendText(ctx context.Context, to, body string) bool {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text": map[string]any{
			"body": truncate(body, MaxTextLength),
		},
	}
	return c.post(ctx, to, payload)
}

// SendImage delivers an image message by URL with an optional caption.
func (c *Client) SendImage(ctx context.Context, to, imageURL, caption string) bool {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "image",
		"image": map[string]any{
			"link":    imageURL,
			"caption": truncate(caption, MaxCaptionLength),
		},
	}
	return c.post(ctx, to, payload)
}

func (c *Client) post(ctx context.Context, to string, payload map[string]any) bool {
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)

	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Error("marshal whatsapp payload", "to", to, "err", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.log.Error("build whatsapp request", "to", to, "err", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("send whatsapp message", "to", to, "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rawBody, _ := io.ReadAll(resp.Body)
		c.log.Error("whatsapp send rejected", "to", to, "status", resp.StatusCode, "body", truncate(strings.TrimSpace(string(rawBody)), 512))
		return false
	}

	c.log.Debug("whatsapp message sent", "to", to)
	return true
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
