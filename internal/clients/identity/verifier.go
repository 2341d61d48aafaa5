package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields read from a tenant-issued access token. Roles come
// from the "user/roles" custom claim set by a tenant rule.
type Claims struct {
	Email         string   `json:"email,omitempty"`
	EmailVerified bool     `json:"email_verified,omitempty"`
	Roles         []string `json:"user/roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks RS256 access tokens against the tenant's JWKS.
// The key set is refreshed in the background until Close.
type TokenVerifier struct {
	keys     keyfunc.Keyfunc
	issuer   string
	audience string
	cancel   context.CancelFunc

	// Now overrides the clock used for exp/nbf checks.
	Now func() time.Time
}

// NewTokenVerifier loads https://{domain}/.well-known/jwks.json. An empty
// audience skips the aud check.
func NewTokenVerifier(ctx context.Context, domain, audience string) (*TokenVerifier, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, ErrNotConfigured
	}
	base := baseURL(domain)

	ctx, cancel := context.WithCancel(ctx)
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{base + "/.well-known/jwks.json"})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load jwks: %w", err)
	}

	return &TokenVerifier{
		keys:     keys,
		issuer:   base + "/",
		audience: audience,
		cancel:   cancel,
	}, nil
}

func (v *TokenVerifier) Verify(_ context.Context, token string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(v.Now))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, v.keys.Keyfunc, opts...); err != nil {
		return Claims{}, err
	}
	if claims.Subject == "" {
		return Claims{}, errors.New("token has no subject")
	}
	return *claims, nil
}

func (v *TokenVerifier) Close() {
	v.cancel()
}
