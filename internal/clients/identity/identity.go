package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SundayYogurt/auth_service/internal/interfaces"
	"github.com/SundayYogurt/auth_service/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const maxErrorBody = 64 << 10

var ErrNotConfigured = errors.New("identity provider is not configured")

type Config struct {
	// Domain is the tenant host, e.g. "tenant.eu.auth0.com". A full
	// http(s) URL is accepted as well.
	Domain       string
	ClientID     string
	ClientSecret string
	// Audience defaults to the management API of Domain.
	Audience string
	Timeout  time.Duration
}

// APIError is a non-2xx answer from the management API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity provider error (%d): %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

var _ interfaces.IdentityProvider = (*Client)(nil)

// New builds a management API client. The client-credentials token is
// fetched lazily and reused until it expires.
func New(cfg Config) (*Client, error) {
	if cfg.Domain == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	base := baseURL(cfg.Domain)
	audience := cfg.Audience
	if audience == "" {
		audience = base + "/api/v2/"
	}

	cc := clientcredentials.Config{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		TokenURL:       base + "/oauth/token",
		Scopes:         []string{"read:users", "update:users"},
		EndpointParams: url.Values{"audience": {audience}},
	}

	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := cc.Client(tokenCtx)
	httpClient.Timeout = timeout

	return &Client{baseURL: base, http: httpClient}, nil
}

func baseURL(domain string) string {
	domain = strings.TrimRight(strings.TrimSpace(domain), "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

// UpdateUser patches the user's root attributes.
// Endpoint: PATCH /api/v2/users/{id}
func (c *Client) UpdateUser(ctx context.Context, id string, attrs map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("missing identity id")
	}
	return c.do(ctx, http.MethodPatch, "/api/v2/users/"+url.PathEscape(id), attrs)
}

// SendEmailVerification queues a verification email job.
// Endpoint: POST /api/v2/jobs/verification-email
func (c *Client) SendEmailVerification(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("missing identity id")
	}
	return c.do(ctx, http.MethodPost, "/api/v2/jobs/verification-email", map[string]string{"user_id": id})
}

func (c *Client) do(ctx context.Context, method, path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// error bodies are short; anything past the cap is dropped
	body, _ := utils.ReadAllLimit(resp.Body, maxErrorBody)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &e) == nil {
			switch {
			case e.Message != "":
				msg = e.Message
			case e.Error != "":
				msg = e.Error
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// Disabled stands in when no tenant is configured; every call fails.
type Disabled struct{}

var _ interfaces.IdentityProvider = Disabled{}

func (Disabled) UpdateUser(context.Context, string, map[string]any) error {
	return ErrNotConfigured
}

func (Disabled) SendEmailVerification(context.Context, string) error {
	return ErrNotConfigured
}
