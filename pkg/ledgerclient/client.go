// Package ledgerclient is an HTTP client for the external ledger
// service that actually moves funds. The engine only hands it schedule
// executions and records the outcome; execution semantics live entirely
// on the other side.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nmalik/paysplit/internal/models"
)

// Client submits schedule executions to the ledger service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the ledger service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type executeRequest struct {
	ScheduleID string         `json:"schedule_id"`
	Payer      string         `json:"payer"`
	Payee      string         `json:"payee"`
	Amount     float64        `json:"amount"`
	Tokens     []tokenPayload `json:"tokens"`
	Message    string         `json:"message,omitempty"`
}

type tokenPayload struct {
	ID     string  `json:"id,omitempty"`
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

type executeResponse struct {
	TransactionID string `json:"transaction_id"`
}

// Execute submits one execution of the schedule and returns the
// settlement transaction id the ledger assigned.
func (c *Client) Execute(ctx context.Context, schedule *models.SchedulePayment) (string, error) {
	payload := executeRequest{
		ScheduleID: schedule.ID,
		Payer:      schedule.Payer,
		Payee:      schedule.Payee,
		Amount:     schedule.Amount,
		Message:    schedule.Message,
	}
	for _, t := range schedule.Tokens {
		payload.Tokens = append(payload.Tokens, tokenPayload{ID: t.ID, Symbol: t.Symbol, Amount: t.Amount})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal execution request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/executions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build execution request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("ledger returned status %d", resp.StatusCode)
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode ledger response: %w", err)
	}
	return out.TransactionID, nil
}
