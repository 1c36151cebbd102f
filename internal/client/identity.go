package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pageturn/bookclub-chat/internal/apperr"
)

// IdentityDirectory resolves user ids to display names. The identity
// platform is an external collaborator; only this lookup is consumed.
type IdentityDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Config holds identity service settings.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// HTTPIdentityDirectory calls the identity service over HTTP.
type HTTPIdentityDirectory struct {
	baseURL string
	client  *http.Client
}

func NewHTTPIdentityDirectory(cfg Config) *HTTPIdentityDirectory {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPIdentityDirectory{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type userProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// DisplayName looks up a user's display name; unknown users surface as
// not-found.
func (d *HTTPIdentityDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	url := fmt.Sprintf("%s/users/%s", d.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", apperr.NotFound("user %s not found", userID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity lookup returned status %d", resp.StatusCode)
	}

	var profile userProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("decode identity response: %w", err)
	}

	return profile.DisplayName, nil
}
