// Package collaborators implements HTTP clients for the platform services
// the reward dispatcher calls out to. The pipeline references users and
// notifications but does not own either record.
package collaborators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bestrong/payments/internal/config"
	"github.com/bestrong/payments/internal/models"
)

// UserStoreClient talks to the platform's user store
type UserStoreClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewUserStoreClient creates a user store client from configuration
func NewUserStoreClient(cfg *config.CollaboratorsConfig) *UserStoreClient {
	return &UserStoreClient{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.UserStoreURL,
		apiKey:     cfg.InternalAPIKey,
	}
}

// LookupByPhone resolves the platform user behind a payer phone number.
// Returns models.ErrNotFound when no account matches.
func (c *UserStoreClient) LookupByPhone(ctx context.Context, phone string) (*models.User, error) {
	endpoint := c.baseURL + "/api/users/lookup?phone=" + url.QueryEscape(phone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build user lookup request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user store unreachable: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with close error

	if resp.StatusCode == http.StatusNotFound {
		return nil, models.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user lookup returned HTTP %d", resp.StatusCode)
	}

	var user models.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("malformed user lookup response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("user lookup response missing id")
	}

	return &user, nil
}

// AddCredits applies a credit and experience delta to a user's account
func (c *UserStoreClient) AddCredits(ctx context.Context, userID string, credits, experience int64) error {
	payload := map[string]any{
		"userId":     userID,
		"credits":    credits,
		"experience": experience,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode credit update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/users/credits", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build credit update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("user store unreachable: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with close error

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256)) //nolint:errcheck // best-effort detail
		return fmt.Errorf("credit update returned HTTP %d: %s", resp.StatusCode, detail)
	}

	return nil
}

func (c *UserStoreClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}
}
