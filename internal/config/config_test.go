package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Variables with no default are cleared; the rest pin the documented defaults
	for _, k := range []string{"DATABASE_URL", "OMISE_PUBLIC_KEY", "OMISE_SECRET_KEY", "RABBIT_URL", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	t.Setenv("PORT", "4000")
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("HOLD_TTL", "10m")
	t.Setenv("SWEEP_INTERVAL", "1m")
	t.Setenv("PAYMENT_TIMEOUT", "15s")
	t.Setenv("EVENTS_EXCHANGE", "booking.events")
	t.Setenv("CORS_ORIGIN", "http://localhost:5173, http://localhost:3000")
	t.Setenv("IS_PROD", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.HoldTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, "booking.events", cfg.EventsExchange)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORSOrigins())
}

func TestValidate(t *testing.T) {
	base := Config{
		JWTSecret:      "s3cret",
		TokenTTL:       time.Hour,
		HoldTTL:        10 * time.Minute,
		SweepInterval:  time.Minute,
		PaymentTimeout: 15 * time.Second,
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"prod with dev secret", func(c *Config) { c.IsProd = true; c.JWTSecret = devJWTSecret }, true},
		{"prod with real secret", func(c *Config) { c.IsProd = true }, false},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"zero hold ttl", func(c *Config) { c.HoldTTL = 0 }, true},
		{"half omise keys", func(c *Config) { c.OmisePublicKey = "pkey" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
