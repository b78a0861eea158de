// Package payment holds the gateway adapters behind the payment.Processor
// strategy: Stripe for cards, PayPal Orders v2, Coinbase Commerce charges
// and direct USDT transfers verified on TronGrid.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/Marusmurong/mall-sub000/internal/domain/payment"
)

// maxGatewayResponse bounds how much of a gateway response is read
const maxGatewayResponse = 1 << 20

// gatewayClient is the JSON-over-HTTPS plumbing shared by the REST adapters
type gatewayClient struct {
	name    string
	baseURL string
	http    *http.Client
}

func newGatewayClient(name, baseURL string, timeout time.Duration) gatewayClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gatewayClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// gatewayError is returned for non-2xx responses
type gatewayError struct {
	Gateway    string
	StatusCode int
	Body       string
}

func (e *gatewayError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Gateway, e.StatusCode, e.Body)
}

// Unwrap lets callers match the domain sentinel with errors.Is
func (e *gatewayError) Unwrap() error {
	return domain.ErrGatewayUnavailable
}

// do sends in as JSON (when non-nil) and decodes the response into out
// (when non-nil). header callbacks add auth and idempotency headers.
func (c gatewayClient) do(ctx context.Context, method, path string, in, out any, header func(http.Header)) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", c.name, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if header != nil {
		header(req.Header)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", c.name, domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayResponse))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.name, err)
	}
	if resp.StatusCode >= 300 {
		return &gatewayError{Gateway: c.name, StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", c.name, err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
