// Package gateway implements the client for the external mobile-money
// payment provider.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bestrong/payments/internal/config"
	"github.com/shopspring/decimal"
)

// UpstreamError reports that the provider was unreachable or returned a
// non-conforming response. It is always transient: the caller must leave
// the transaction as-is and let a later poll tick or webhook delivery
// retry. It is never interpreted as a refusal.
type UpstreamError struct {
	Err       error
	Operation string
	Detail    string
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.Operation, e.Detail, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Operation, e.Detail)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// InitiateRequest carries the fields the provider needs to start a charge
type InitiateRequest struct {
	Reference    string
	Phone        string
	Country      string
	Currency     string
	OperatorHint string
	Amount       decimal.Decimal
}

// Client talks to the provider's pay API. All calls are single blocking
// requests bounded by the configured timeout; retries happen at the
// pipeline boundary, never here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	productKey string
}

// NewClient creates a gateway client from configuration
func NewClient(cfg *config.GatewayConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		productKey: cfg.ProductKey,
	}
}

// envelope is the provider's uniform response wrapper
type envelope struct {
	Response string          `json:"response"`
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
}

type initiateData struct {
	Transaction string `json:"transaction"`
	ChannelUSSD string `json:"channel_ussd"`
	ChannelName string `json:"channel_name"`
	Fee         string `json:"fee"`
}

type verifyData struct {
	Transaction string `json:"transaction"`
	Status      string `json:"status"`
	Amount      string `json:"amount"`
	Fee         string `json:"fee"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	Payer       string `json:"payer"`
}

// Initiate starts a charge with the provider. On success the returned
// PendingCharge carries the provider-assigned transaction id and the
// user-facing payment instructions.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*PendingCharge, error) {
	payload := map[string]any{
		"operation": "initiate",
		"reference": req.Reference,
		"amount":    req.Amount,
		"phone":     req.Phone,
		"method":    "mobilemoney",
		"country":   req.Country,
		"currency":  req.Currency,
	}
	if req.OperatorHint != "" {
		payload["operator"] = req.OperatorHint
	}

	env, raw, err := c.post(ctx, "initiate", payload)
	if err != nil {
		return nil, err
	}

	if env.Response != "success" {
		return nil, &UpstreamError{
			Operation: "initiate",
			Detail:    fmt.Sprintf("provider rejected initiation: %s (%s)", env.Message, env.Code),
		}
	}

	var data initiateData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Transaction == "" {
		return nil, &UpstreamError{
			Operation: "initiate",
			Detail:    fmt.Sprintf("malformed initiation data: %s", truncate(raw)),
			Err:       err,
		}
	}

	fee := decimal.Zero
	if data.Fee != "" {
		if parsed, perr := decimal.NewFromString(data.Fee); perr == nil {
			fee = parsed
		}
	}

	return &PendingCharge{
		TransactionID: data.Transaction,
		Instructions:  data.ChannelUSSD,
		Amount:        req.Amount,
		Fee:           fee,
	}, nil
}

// Check asks the provider for the authoritative outcome of a charge.
// Any transport failure, non-2xx response or unrecognized status yields
// an UpstreamError, never a refusal.
func (c *Client) Check(ctx context.Context, transactionID string) (Outcome, error) {
	payload := map[string]any{
		"operation":   "verify",
		"transaction": transactionID,
	}

	env, raw, err := c.post(ctx, "verify", payload)
	if err != nil {
		return Outcome{}, err
	}

	if env.Response != "success" {
		return Outcome{}, &UpstreamError{
			Operation: "verify",
			Detail:    fmt.Sprintf("provider verify failed: %s (%s)", env.Message, env.Code),
		}
	}

	var data verifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return Outcome{}, &UpstreamError{
			Operation: "verify",
			Detail:    fmt.Sprintf("malformed verify data: %s", truncate(raw)),
			Err:       err,
		}
	}

	status, err := mapProviderStatus(data.Status)
	if err != nil {
		return Outcome{}, &UpstreamError{Operation: "verify", Detail: err.Error()}
	}

	outcome := Outcome{
		Raw:           raw,
		TransactionID: data.Transaction,
		Reference:     data.Reference,
		PayerPhone:    data.Payer,
		Currency:      data.Currency,
		Status:        status,
	}
	if data.Amount != "" {
		if parsed, perr := decimal.NewFromString(data.Amount); perr == nil {
			outcome.Amount = parsed
		}
	}
	if data.Fee != "" {
		if parsed, perr := decimal.NewFromString(data.Fee); perr == nil {
			outcome.Fee = parsed
		}
	}

	return outcome, nil
}

func mapProviderStatus(status string) (OutcomeStatus, error) {
	switch status {
	case "successful":
		return OutcomeAccepted, nil
	case "failed":
		return OutcomeRefused, nil
	case "pending":
		return OutcomeStillPending, nil
	default:
		return "", fmt.Errorf("unrecognized provider status %q", status)
	}
}

func (c *Client) post(ctx context.Context, operation string, payload map[string]any) (*envelope, json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, &UpstreamError{Operation: operation, Detail: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pay", bytes.NewReader(body))
	if err != nil {
		return nil, nil, &UpstreamError{Operation: operation, Detail: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Pay-API-Key", c.apiKey)
	req.Header.Set("Pay-Product-Key", c.productKey)
	req.Header.Set("Pay-API-Version", "1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &UpstreamError{Operation: operation, Detail: "provider unreachable", Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with close error

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &UpstreamError{Operation: operation, Detail: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &UpstreamError{
			Operation: operation,
			Detail:    fmt.Sprintf("provider returned HTTP %d: %s", resp.StatusCode, truncate(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, &UpstreamError{
			Operation: operation,
			Detail:    fmt.Sprintf("malformed provider response: %s", truncate(raw)),
			Err:       err,
		}
	}

	return &env, raw, nil
}

func truncate(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
