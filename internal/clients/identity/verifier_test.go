package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAudience = "http://localhost:8000"

type jwksTenant struct {
	*httptest.Server
	key *rsa.PrivateKey
	kid string
}

func newJWKSTenant(t *testing.T) *jwksTenant {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tn := &jwksTenant{key: key, kid: "test-key-1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"use": "sig",
				"alg": "RS256",
				"kid": tn.kid,
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	})
	tn.Server = httptest.NewServer(mux)
	t.Cleanup(tn.Close)
	return tn
}

func (tn *jwksTenant) sign(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = tn.kid
	signed, err := token.SignedString(tn.key)
	require.NoError(t, err)
	return signed
}

func (tn *jwksTenant) claims(sub string) Claims {
	now := time.Now()
	return Claims{
		Email: "jane@example.com",
		Roles: []string{"admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    tn.URL + "/",
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func newTestVerifier(t *testing.T, tn *jwksTenant) *TokenVerifier {
	t.Helper()
	v, err := NewTokenVerifier(context.Background(), tn.URL, testAudience)
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}

func TestTokenVerifier_Valid(t *testing.T) {
	tn := newJWKSTenant(t)
	v := newTestVerifier(t, tn)

	claims, err := v.Verify(context.Background(), tn.sign(t, tn.claims("auth0|abc")))
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, []string{"admin"}, claims.Roles)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	tn := newJWKSTenant(t)
	v := newTestVerifier(t, tn)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token func() string
	}{
		{"expired", func() string {
			c := tn.claims("auth0|abc")
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return tn.sign(t, c)
		}},
		{"no expiry", func() string {
			c := tn.claims("auth0|abc")
			c.ExpiresAt = nil
			return tn.sign(t, c)
		}},
		{"wrong audience", func() string {
			c := tn.claims("auth0|abc")
			c.Audience = jwt.ClaimStrings{"https://elsewhere"}
			return tn.sign(t, c)
		}},
		{"wrong issuer", func() string {
			c := tn.claims("auth0|abc")
			c.Issuer = "https://evil.example.com/"
			return tn.sign(t, c)
		}},
		{"no subject", func() string {
			return tn.sign(t, tn.claims(""))
		}},
		{"foreign key", func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodRS256, tn.claims("auth0|abc"))
			token.Header["kid"] = tn.kid
			signed, err := token.SignedString(otherKey)
			require.NoError(t, err)
			return signed
		}},
		{"hmac", func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, tn.claims("auth0|abc"))
			token.Header["kid"] = tn.kid
			signed, err := token.SignedString([]byte("secret"))
			require.NoError(t, err)
			return signed
		}},
		{"garbage", func() string { return "not-a-jwt" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tc.token())
			assert.Error(t, err)
		})
	}
}

func TestTokenVerifier_NoAudienceConfigured(t *testing.T) {
	tn := newJWKSTenant(t)
	v, err := NewTokenVerifier(context.Background(), tn.URL, "")
	require.NoError(t, err)
	t.Cleanup(v.Close)

	c := tn.claims("auth0|abc")
	c.Audience = nil
	_, err = v.Verify(context.Background(), tn.sign(t, c))
	assert.NoError(t, err)
}

func TestNewTokenVerifier_RequiresDomain(t *testing.T) {
	_, err := NewTokenVerifier(context.Background(), " ", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
