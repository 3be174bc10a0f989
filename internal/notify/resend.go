package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultResendEndpoint is the Resend API base URL.
const DefaultResendEndpoint = "https://api.resend.com"

// Message is a rendered email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, msg Message) (id string, err error)
}

// ResendClient sends email through the Resend HTTP API.
type ResendClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewResendClient creates a client. An empty endpoint uses DefaultResendEndpoint.
func NewResendClient(endpoint, apiKey string, timeout time.Duration) *ResendClient {
	if endpoint == "" {
		endpoint = DefaultResendEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ResendClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send posts msg to /emails and returns the provider message ID.
func (c *ResendClient) Send(ctx context.Context, msg Message) (string, error) {
	data, err := json.Marshal(resendRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/emails", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "secdesk-server")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out resendResponse
	_ = json.Unmarshal(body, &out)

	if resp.StatusCode >= 300 {
		if out.Message != "" {
			return "", fmt.Errorf("resend: status %d: %s", resp.StatusCode, out.Message)
		}
		return "", fmt.Errorf("resend: status %d", resp.StatusCode)
	}
	return out.ID, nil
}
