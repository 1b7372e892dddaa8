// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"openflow/backend/internal/security"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
// Defaults are suitable for local development only.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; required for serving auth endpoints.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKeyPath is the filesystem path to the PKCS8 PEM private key.
	// The file is unencrypted at rest; in production it must come from a
	// secret store or protected volume, which is a deployment concern.
	JWTPrivateKeyPath string `mapstructure:"JWT_PRIVATE_KEY_PATH"`
	// JWTPublicKeyPath is the path to the SubjectPublicKeyInfo PEM public key.
	// When unset it is derived from JWTPrivateKeyPath ("private" → "public").
	JWTPublicKeyPath string `mapstructure:"JWT_PUBLIC_KEY_PATH"`
	// JWTIssuer is the iss claim; must match the verifier portal config.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim; must match the verifier portal config.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTKeyID is the fixed key identifier embedded in signature headers and
	// the published JWKS entry. Static; there is no rotation.
	JWTKeyID string `mapstructure:"JWT_KEY_ID"`
	// JWTTokenTTL is the identity assertion lifetime (e.g. "1h").
	JWTTokenTTL string `mapstructure:"JWT_TOKEN_TTL"`
	// SessionTTL is the login session lifetime (e.g. "168h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// Telemetry (optional).
	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. localhost:4317); empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses; empty disables Kafka telemetry.
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for auth telemetry events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored (e.g. in CI). Env vars
// override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY_PATH", "./keys/private_key.pem")
	v.SetDefault("JWT_PUBLIC_KEY_PATH", "")
	v.SetDefault("JWT_ISSUER", "http://localhost:8000")
	v.SetDefault("JWT_AUDIENCE", "openflow-platform")
	v.SetDefault("JWT_KEY_ID", "openflow-key-1")
	v.SetDefault("JWT_TOKEN_TTL", "1h")
	v.SetDefault("SESSION_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "openflow-auth-events")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.JWTPrivateKeyPath == "" {
		return nil, errors.New("config: JWT_PRIVATE_KEY_PATH must be set")
	}
	if cfg.JWTPublicKeyPath == "" {
		cfg.JWTPublicKeyPath = security.PublicKeyPath(cfg.JWTPrivateKeyPath)
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// TokenTTL parses JWTTokenTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTTokenTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// SessionLifetime parses SessionTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) SessionLifetime() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the
// comma-separated config. A non-empty list enables Kafka telemetry.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
