// Package alertsource queries the external alert feed for the read-only
// snapshot fields of a source alert.
package alertsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/linnemanlabs/actionhub/internal/hub"
)

const httpTimeout = 10 * time.Second

// Client reads alert snapshots from the feed's HTTP API. It implements
// hub.AlertSource.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a new alert source client for the given feed base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// snapshotDoc is the feed's wire representation of an alert.
type snapshotDoc struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	City        string    `json:"city"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Impact      string    `json:"impact"`
}

// Snapshot fetches the immutable fields of a source alert by ID. Returns
// ok=false when the feed has no alert for the ID.
func (c *Client) Snapshot(ctx context.Context, sourceAlertID string) (*hub.Snapshot, bool, error) {
	u := fmt.Sprintf("%s/api/v1/alerts/%s", c.baseURL, url.PathEscape(sourceAlertID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("alertsource: create request: %w", err)
	}

	resp, err := c.client.Do(req) //nolint:gosec // G704: baseURL is from trusted config, not user input
	if err != nil {
		return nil, false, fmt.Errorf("alertsource: get alert: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, fmt.Errorf("alertsource: feed returned %d: %s", resp.StatusCode, string(respBody))
	}

	var doc snapshotDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("alertsource: decode alert: %w", err)
	}

	return &hub.Snapshot{
		Title:       doc.Title,
		Description: doc.Description,
		City:        doc.City,
		WindowStart: doc.WindowStart,
		WindowEnd:   doc.WindowEnd,
		Impact:      doc.Impact,
	}, true, nil
}
