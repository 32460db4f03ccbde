// Package addrbook is an HTTP client for the external address-book
// service, used to resolve display names for raw wallet addresses.
package addrbook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nmalik/paysplit/internal/service"
)

// Client implements service.AddressBook over the address-book service's
// HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ service.AddressBook = (*Client)(nil)

// NewClient creates a client for the address-book service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type resolveResponse struct {
	Name string `json:"name"`
}

// ResolveDisplayName looks up the name ownerAddress has stored for
// targetAddress. A missing entry returns an empty name with no error.
func (c *Client) ResolveDisplayName(ctx context.Context, ownerAddress, targetAddress string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/contacts/%s/%s",
		c.baseURL, url.PathEscape(ownerAddress), url.PathEscape(targetAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build address-book request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("address-book request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("address-book returned status %d", resp.StatusCode)
	}

	var body resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode address-book response: %w", err)
	}
	return body.Name, nil
}
