package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ServerPort)
	assert.Equal(t, DriverMongo, cfg.DatabaseDriver)
	assert.Equal(t, 45*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 72*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.LoginAttemptWindow)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.IdentityEnabled())
	assert.False(t, cfg.FederatedTokensEnabled())
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_DRIVER", " Postgres ")
	t.Setenv("DATABASE_DSN", "postgres://localhost/auth")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("LOGIN_ATTEMPT_WINDOW", "90s")
	t.Setenv("AUTH_DOMAIN", "tenant.example.com")
	t.Setenv("AUTH_TOKEN_AUDIENCE", "http://localhost:8000")
	t.Setenv("AUTH_CLIENT", "client")
	t.Setenv("AUTH_CLIENT_SECRET", "shh")
	t.Setenv("KAFKA_BROKER", "localhost:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, 3, cfg.LoginMaxAttempts)
	assert.Equal(t, 90*time.Second, cfg.LoginAttemptWindow)
	assert.Equal(t, "http://localhost:8000", cfg.AuthTokenAudience)
	assert.True(t, cfg.IdentityEnabled())
	assert.True(t, cfg.FederatedTokensEnabled())
	assert.True(t, cfg.KafkaEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{
		JWTSecret:        "s",
		DatabaseDriver:   DriverMongo,
		MongoURL:         "mongodb://localhost",
		LoginMaxAttempts: 5,
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  time.Hour,
	}
	require.NoError(t, base.Validate())

	noSecret := base
	noSecret.JWTSecret = " "
	assert.ErrorContains(t, noSecret.Validate(), "JWT_SECRET")

	pgNoDSN := base
	pgNoDSN.DatabaseDriver = DriverPostgres
	assert.ErrorContains(t, pgNoDSN.Validate(), "DATABASE_DSN")

	memory := base
	memory.DatabaseDriver = DriverMemory
	memory.MongoURL = ""
	assert.NoError(t, memory.Validate())

	unknown := base
	unknown.DatabaseDriver = "sqlite"
	assert.ErrorContains(t, unknown.Validate(), "DATABASE_DRIVER")

	zeroAttempts := base
	zeroAttempts.LoginMaxAttempts = 0
	assert.ErrorContains(t, zeroAttempts.Validate(), "LOGIN_MAX_ATTEMPTS")
}
