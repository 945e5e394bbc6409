// Package dashboard forwards processing outcomes to the dashboard's
// file-history endpoint.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnexpectedStatus is returned when the dashboard answers with a non-2xx code.
var ErrUnexpectedStatus = errors.New("unexpected dashboard status")

// Update is the payload posted to /api/file-history.
type Update struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Language    string `json:"language"`
	Size        string `json:"size"`
	ProcessedAt string `json:"processedAt"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// Client posts updates to a dashboard.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the dashboard at baseURL.
// A zero timeout uses 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts one update.
func (c *Client) Send(ctx context.Context, u Update) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/file-history", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
