// README: Notification channel; HTTP transactional-mail client with a mock mode for local runs.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Sender delivers one plain-text message and returns the provider message ID.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

type Config struct {
	Endpoint string
	APIKey   string
	Source   string
	Mock     bool
}

// Client posts to a transactional-mail HTTP API. In mock mode it logs the
// message and fabricates an ID so the pipeline can run without a provider.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

func (c *Client) Send(ctx context.Context, to, subject, body string) (string, error) {
	if c.cfg.Mock {
		log.Printf("mail (mock): to=%s subject=%q bytes=%d", to, subject, len(body))
		return fmt.Sprintf("mock-%d", time.Now().UnixNano()), nil
	}

	payload, err := json.Marshal(sendRequest{
		From:    c.cfg.Source,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mail send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("mail send: status %d: %s", resp.StatusCode, string(raw))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("mail decode: %w", err)
	}
	return out.MessageID, nil
}
