package config

import (
	"errors"  // Config validation errors
	"fmt"     // Error wrapping
	"strings" // Origin list parsing
	"time"    // Durations

	"github.com/joho/godotenv"             // For loading .env files
	"github.com/kelseyhightower/envconfig" // Environment to struct
)

const devJWTSecret = "dev-secret"

// Config holds the application configuration
type Config struct {
	Port        string        `envconfig:"PORT" default:"4000"`                         // Application port
	JWTSecret   string        `envconfig:"JWT_SECRET" default:"dev-secret"`             // JWT secret key
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"1h"`                      // Token lifetime
	DatabaseURL string        `envconfig:"DATABASE_URL"`                                // Postgres URL; empty means in-memory
	CORSOrigin  string        `envconfig:"CORS_ORIGIN" default:"http://localhost:5173"` // Comma-separated origins
	RedisAddr   string        `envconfig:"REDIS_ADDR"`                                  // Redis server address
	RedisPass   string        `envconfig:"REDIS_PASS"`                                  // Redis password
	RedisDB     int           `envconfig:"REDIS_DB" default:"0"`                        // Redis database number

	RabbitURL      string `envconfig:"RABBIT_URL"`                               // Broker URL; empty disables events
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"booking.events"` // Topic exchange name

	OmisePublicKey  string        `envconfig:"OMISE_PUBLIC_KEY"`               // Omise public key
	OmiseSecretKey  string        `envconfig:"OMISE_SECRET_KEY"`               // Omise secret key
	PaymentCurrency string        `envconfig:"PAYMENT_CURRENCY" default:"usd"` // Capture currency
	PaymentTimeout  time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"15s"`  // Capture deadline

	HoldTTL        time.Duration `envconfig:"HOLD_TTL" default:"10m"`                         // Hold lifetime
	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`                    // Hold sweeper period
	MeetingBaseURL string        `envconfig:"MEETING_BASE_URL" default:"https://example.com"` // Meeting link prefix

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // logrus level
	IsProd   bool   `envconfig:"IS_PROD" default:"false"`  // Is production environment
}

// LoadConfig loads .env if present, then reads the environment
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that are unsafe or unusable
func (c *Config) Validate() error {
	if c.IsProd && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 || c.HoldTTL <= 0 || c.SweepInterval <= 0 || c.PaymentTimeout <= 0 {
		return errors.New("TOKEN_TTL, HOLD_TTL, SWEEP_INTERVAL and PAYMENT_TIMEOUT must be positive")
	}
	if (c.OmisePublicKey == "") != (c.OmiseSecretKey == "") {
		return errors.New("OMISE_PUBLIC_KEY and OMISE_SECRET_KEY must be set together")
	}
	return nil
}

// CORSOrigins splits CORS_ORIGIN into a list
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
