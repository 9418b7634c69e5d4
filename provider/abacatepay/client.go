// Package abacatepay registers billing customers with the AbacatePay API.
package abacatepay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clarix-app/clarix-api"
)

// Config configures the payment provider client. An empty APIKey disables
// the client; callers are expected to check Enabled before use.
type Config struct {
	// BaseURL is the API root, e.g. https://api.abacatepay.com.
	BaseURL string

	// APIKey is the bearer token. Empty disables the integration.
	APIKey string

	// HTTPClient is optional; a 10s-timeout client is used when nil.
	HTTPClient *http.Client
}

type Client struct {
	config Config
	http   *http.Client
}

var _ clarix.PaymentCustomers = (*Client)(nil)

func NewClient(config Config) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Second * 10}
	}

	return &Client{
		config: config,
		http:   httpClient,
	}
}

func (c *Client) Enabled() bool {
	return strings.TrimSpace(c.config.APIKey) != ""
}

type customerPayload struct {
	Name      string `json:"name"`
	Cellphone string `json:"cellphone"`
	Email     string `json:"email"`
	TaxID     string `json:"taxId"`
}

// customerResponse covers both response shapes the API has shipped: the id
// nested under data, and the id at the top level.
type customerResponse struct {
	ID   string `json:"id"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// CreateCustomer registers a billing customer and returns its id.
func (c *Client) CreateCustomer(ctx context.Context, req clarix.CustomerRequest) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("abacatepay: client is disabled")
	}

	payload := customerPayload{
		Name:      req.Name,
		Cellphone: req.Cellphone,
		Email:     req.Email,
		TaxID:     req.TaxID,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("abacatepay: encode request: %w", err)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/v1/customer/create"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("abacatepay: build request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("abacatepay: create customer: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<14))
		return "", fmt.Errorf("abacatepay: create customer failed with status %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}

	out := &customerResponse{}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return "", fmt.Errorf("abacatepay: decode response: %w", err)
	}

	customerID := out.Data.ID
	if customerID == "" {
		customerID = out.ID
	}
	if customerID == "" {
		return "", fmt.Errorf("abacatepay: response missing customer id")
	}

	return customerID, nil
}
