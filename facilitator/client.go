// Package facilitator implements the HTTP client for the external
// facilitator service, the system of record for payment verification and
// settlement.
package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	donation "github.com/tipjar-labs/x402-donation"
)

// DefaultFacilitatorURL is the public facilitator used when no URL is
// configured.
const DefaultFacilitatorURL = "https://x402.org/facilitator"

const (
	headerContentType = "Content-Type"
	headerAPIKey      = "X-API-KEY"
	mimeJSON          = "application/json"
)

// Config configures a facilitator Client.
type Config struct {
	// URL is the base URL of the facilitator service.
	URL string

	// APIKey, when set, is attached as X-API-KEY to every call.
	APIKey string

	// HTTPClient overrides the underlying HTTP client (optional).
	HTTPClient *http.Client

	// Timeout for facilitator calls when HTTPClient is nil. Defaults to
	// 30s. A timeout surfaces to callers like any other transport error.
	Timeout time.Duration
}

// Client calls the facilitator's /verify and /settle endpoints.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a facilitator client from config. A nil config uses
// the default facilitator.
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}

	url := config.URL
	if url == "" {
		url = DefaultFacilitatorURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		url:        url,
		apiKey:     config.APIKey,
		httpClient: httpClient,
	}
}

// Verify asks the facilitator to dry-run check a payment: signature
// validity, balance, nonce. No funds move. A well-formed negative answer
// (isValid=false) is returned as a value; transport failures and non-2xx
// statuses are returned as errors.
func (c *Client) Verify(ctx context.Context, payload donation.PaymentPayload, requirements donation.PaymentRequirements) (*donation.VerifyResponse, error) {
	body, err := c.post(ctx, "/verify", payload, requirements)
	if err != nil {
		return nil, err
	}

	var verify donation.VerifyResponse
	if err := json.Unmarshal(body, &verify); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}
	return &verify, nil
}

// Settle asks the facilitator to execute the payment on chain. Once this
// call has been made its outcome is authoritative; there is no rollback.
func (c *Client) Settle(ctx context.Context, payload donation.PaymentPayload, requirements donation.PaymentRequirements) (*donation.SettleResponse, error) {
	body, err := c.post(ctx, "/settle", payload, requirements)
	if err != nil {
		return nil, err
	}

	var settle donation.SettleResponse
	if err := json.Unmarshal(body, &settle); err != nil {
		return nil, fmt.Errorf("failed to decode settle response: %w", err)
	}
	return &settle, nil
}

// post sends the shared verify/settle request body and returns the raw
// response for 2xx statuses.
func (c *Client) post(ctx context.Context, path string, payload donation.PaymentPayload, requirements donation.PaymentRequirements) ([]byte, error) {
	requestBody := map[string]any{
		"protocolVersion":     donation.ProtocolVersion,
		"paymentPayload":      json.RawMessage(payload),
		"paymentRequirements": requirements,
	}

	body, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("facilitator %s failed (%d): %s", path, resp.StatusCode, string(responseBody))
	}

	return responseBody, nil
}

// Ensure Client satisfies the exchange's facilitator contract.
var _ donation.Facilitator = (*Client)(nil)
