package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env        string `env:"ENV" envDefault:"dev"`
	ServerPort string `env:"SERVER_PORT" envDefault:":8000"`
	BaseURL    string `env:"BASE_URL" envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// credential store
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"mongo"`
	MongoURL       string `env:"MONGO_URL" envDefault:"mongodb://localhost:27017"`
	MongoDatabase  string `env:"MONGO_DATABASE" envDefault:"auth_service"`
	DatabaseDSN    string `env:"DATABASE_DSN"`

	// tokens
	JWTSecret       string        `env:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"45h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"72h"`

	// brute-force policy
	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginAttemptWindow time.Duration `env:"LOGIN_ATTEMPT_WINDOW" envDefault:"5m"`

	// identity provider
	AuthDomain       string `env:"AUTH_DOMAIN"`
	AuthClientID     string `env:"AUTH_CLIENT"`
	AuthClientSecret string `env:"AUTH_CLIENT_SECRET"`
	AuthAudience     string `env:"AUTH_AUDIENCE"`
	// AuthTokenAudience is the aud required on provider-issued access
	// tokens; empty skips the check.
	AuthTokenAudience string `env:"AUTH_TOKEN_AUDIENCE"`

	// account events
	KafkaBroker   string `env:"KAFKA_BROKER"`
	KafkaTopic    string `env:"KAFKA_TOPIC" envDefault:"account-events"`
	KafkaGroupID  string `env:"KAFKA_GROUP_ID" envDefault:"audit-svc"`
	KafkaUsername string `env:"KAFKA_USERNAME"`
	KafkaPassword string `env:"KAFKA_PASSWORD"`
}

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			slog.Warn("env file not loaded", "err", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DatabaseDriver {
	case DriverMongo:
		if c.MongoURL == "" {
			errs = append(errs, errors.New("MONGO_URL is required for the mongo driver"))
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, errors.New("DATABASE_DRIVER must be mongo, postgres or memory"))
	}
	if c.LoginMaxAttempts <= 0 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be positive"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	return errors.Join(errs...)
}

// IdentityEnabled reports whether the identity provider is configured.
func (c Config) IdentityEnabled() bool {
	return c.AuthDomain != "" && c.AuthClientID != "" && c.AuthClientSecret != ""
}

// FederatedTokensEnabled reports whether provider-issued access tokens are
// accepted. Only the tenant domain is needed to fetch its signing keys.
func (c Config) FederatedTokensEnabled() bool {
	return c.AuthDomain != ""
}

// KafkaEnabled reports whether account events should be published.
func (c Config) KafkaEnabled() bool {
	return c.KafkaBroker != "" && c.KafkaTopic != ""
}
