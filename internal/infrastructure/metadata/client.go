package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"EhonBot/internal/ports"
)

// Client talks to the supplementary metadata service to replace a thin
// catalog caption with a richer description. Every failure here is
// non-fatal: the caller keeps the original caption.
type Client struct {
	endpoint string
	http     *http.Client
}

var _ ports.CaptionEnricher = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Enrich looks up the isbn and returns a replacement description, or an
// empty string when the service has nothing better.
func (c *Client) Enrich(ctx context.Context, isbn string) (string, error) {
	if c.endpoint == "" || isbn == "" {
		return "", nil
	}

	reqURL := c.endpoint + "?isbn=" + url.QueryEscape(isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup isbn: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata service returned %s", resp.Status)
	}

	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode metadata: %w", err)
	}

	return strings.TrimSpace(payload.Description), nil
}
