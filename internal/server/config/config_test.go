package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Positive(t, cfg.MaxRequestBytes)

	t.Setenv("HEALTHVAULT_HTTP_ADDR", ":9999")
	t.Setenv("HEALTHVAULT_DB_DRIVER", "mongo")
	t.Setenv("HEALTHVAULT_DB_DSN", "mongodb://localhost:27017")
	t.Setenv("HEALTHVAULT_JWT_SECRET", "secret")
	cfg = Load()
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "mongo", cfg.DBDriver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.DatabaseDSN)
	assert.Equal(t, "secret", cfg.JWTSecret)
}
