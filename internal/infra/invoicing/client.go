// Package invoicing talks to the external receipt-issuance API.
package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"edupay/internal/config"
	"edupay/internal/domain/ports/adapter"
)

var _ adapter.InvoicingClient = (*Client)(nil)

type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
}

func NewClient(cfg config.InvoicingConfig) *Client {
	return &Client{
		baseURL:   cfg.URL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

type issueResponse struct {
	Success bool   `json:"success"`
	ErrMsg  string `json:"errMsg"`
	DocNum  string `json:"docNum"`
}

// IssueReceipt creates a receipt document for the fulfilled transaction.
// Callers treat failures as best-effort: log and continue.
func (c *Client) IssueReceipt(ctx context.Context, rcpt adapter.Receipt) error {
	requestData := map[string]interface{}{
		"api_key":     c.apiKey,
		"api_secret":  c.apiSecret,
		"type":        "receipt",
		"customer": map[string]string{
			"name":        rcpt.CustomerName,
			"email":       rcpt.Email,
			"personal_id": rcpt.PersonalID,
		},
		"items": []map[string]string{{
			"description": rcpt.Description,
			"amount":      strconv.FormatInt(rcpt.Amount, 10),
		}},
		"external_ref": rcpt.TransactionID,
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return fmt.Errorf("marshal receipt request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create receipt request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send receipt request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read receipt response: %w", err)
	}

	var out issueResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("unmarshal receipt response: %w, body: %s", err, string(body))
	}
	if !out.Success {
		return fmt.Errorf("invoicing error: %s", out.ErrMsg)
	}
	return nil
}
