// Package converter triggers the external document-rendering endpoint.
package converter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"edupay/internal/config"
	"edupay/internal/domain/ports/adapter"
)

var _ adapter.ConverterClient = (*Client)(nil)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(cfg config.ConverterConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type convertResponse struct {
	Bucket   string `json:"bucket"`
	Filename string `json:"filename"`
}

// TriggerConversion asks the rendering pipeline to produce the user's
// document. Opaque and best-effort: callers log failures and move on.
func (c *Client) TriggerConversion(ctx context.Context, userID, productID string) error {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("productId", productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/convert?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create convert request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send convert request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read convert response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("converter status %d: %s", resp.StatusCode, string(body))
	}

	var out convertResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("unmarshal convert response: %w, body: %s", err, string(body))
	}
	if out.Filename == "" {
		return fmt.Errorf("converter returned empty filename")
	}
	return nil
}
