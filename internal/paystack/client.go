package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrGatewayUnavailable covers every network, HTTP and API-level failure
// from the gateway. Callers may retry; no local state has changed.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// InitResult is the subset of the transaction-initialize response the
// checkout needs: where to send the buyer and the reference the webhook
// will present back.
type InitResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Client is a thin adapter over Paystack's REST API. The base URL is
// configurable so tests can point it at a local server.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

type initRequest struct {
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type initResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// InitializeTransaction opens a payment session for amountKobo (the order
// total in the gateway's smallest currency unit) and returns the redirect
// URL. reference is the caller's correlation key; the gateway echoes it in
// the response and later in the webhook.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amountKobo int64, reference string) (*InitResult, error) {
	body, err := json.Marshal(initRequest{
		Email:     email,
		Amount:    amountKobo,
		Reference: reference,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build initialize request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("initialize transaction: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read initialize response: %v: %w", err, ErrGatewayUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("initialize transaction returned %d: %w", resp.StatusCode, ErrGatewayUnavailable)
	}

	var parsed initResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode initialize response: %v: %w", err, ErrGatewayUnavailable)
	}
	if !parsed.Status {
		return nil, fmt.Errorf("initialize transaction rejected: %s: %w", parsed.Message, ErrGatewayUnavailable)
	}

	return &InitResult{
		AuthorizationURL: parsed.Data.AuthorizationURL,
		AccessCode:       parsed.Data.AccessCode,
		Reference:        parsed.Data.Reference,
	}, nil
}
