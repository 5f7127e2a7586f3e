// Package webhook sends per-recipient notifications to an external delivery
// relay over HTTP. The relay owns the actual SMTP/SMS transport.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpTimeout = 10 * time.Second

// Provider delivers messages through an HTTP relay endpoint. It implements
// hub.DeliveryProvider.
type Provider struct {
	endpoint string
	client   *http.Client
}

// New creates a new webhook delivery provider.
func New(endpoint string) *Provider {
	return &Provider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: httpTimeout},
	}
}

// payload is the relay's per-delivery request body.
type payload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send posts one delivery to the relay. A non-2xx response is an error; the
// dispatcher records it against the recipient without aborting the batch.
func (p *Provider) Send(ctx context.Context, address, message string) error {
	body, err := json.Marshal(payload{To: address, Message: message})
	if err != nil {
		return fmt.Errorf("delivery: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("delivery: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("delivery: post relay: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("delivery: relay returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
