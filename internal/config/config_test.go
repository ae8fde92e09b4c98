package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_TTL", "")
	t.Setenv("CATALOG_PRESENCE_PATCH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 720, cfg.JWT.TTLHours)
	assert.Equal(t, "720h0m0s", cfg.JWT.TTL().String())
	assert.False(t, cfg.Catalog.PresencePatch)
	assert.Equal(t, "sb", cfg.Payment.PayPalClientID)
	assert.Equal(t, "usd", cfg.Payment.Currency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CATALOG_PRESENCE_PATCH", "TRUE")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USERNAME", "mailer")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Catalog.PresencePatch)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.Frontend.AllowedOrigins)
	assert.True(t, cfg.Email.Enabled())
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Environment: "production",
		JWT:         JWTConfig{SecretKey: defaultJWTSecret, TTLHours: 1},
	}
	assert.Error(t, cfg.Validate())

	cfg.JWT.SecretKey = "s3cret"
	cfg.Session.HashKey = "hash"
	cfg.Database.Password = "pw"
	assert.NoError(t, cfg.Validate())

	cfg.Session.BlockKey = "short"
	assert.Error(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "shop", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", d.DSN())
}
