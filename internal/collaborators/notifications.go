package collaborators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bestrong/payments/internal/config"
	"github.com/bestrong/payments/internal/models"
)

// NotificationClient enqueues user-facing notices with the platform's
// notification service. Delivery and display are entirely external.
type NotificationClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewNotificationClient creates a notification client from configuration
func NewNotificationClient(cfg *config.CollaboratorsConfig) *NotificationClient {
	return &NotificationClient{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.NotificationURL,
		apiKey:     cfg.InternalAPIKey,
	}
}

// PaymentConfirmed enqueues a payment-confirmed notice naming the reward
func (c *NotificationClient) PaymentConfirmed(ctx context.Context, userID string, summary models.RewardSummary) error {
	payload := map[string]any{
		"userId": userID,
		"kind":   "payment-confirmed",
		"reward": summary,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/notifications/credits", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification service unreachable: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with close error

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification enqueue returned HTTP %d", resp.StatusCode)
	}

	return nil
}
