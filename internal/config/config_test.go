package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Default Values", func(t *testing.T) {
		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.Equal(t, "local", cfg.AppEnv)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 10, cfg.DatabaseMaxPoolSize)
		assert.Equal(t, "ipapi", cfg.GeoProvider)
		assert.Equal(t, 5*time.Second, cfg.GeoHTTPTimeout)
		assert.Equal(t, time.Hour, cfg.SessionSweepInterval)
		assert.False(t, cfg.DebugEnabled)
		assert.False(t, cfg.IsProduction())
		assert.Empty(t, cfg.TrustedProxies)
		assert.Empty(t, cfg.TrustedPlatform)
	})

	t.Run("Environment Variables", func(t *testing.T) {
		t.Setenv("PORT", "9999")
		t.Setenv("DATABASE_SSL_REQUIRED", "true")
		t.Setenv("DATABASE_MAX_POOL_SIZE", "3")
		t.Setenv("DEBUG_ENABLED", "true")
		t.Setenv("GEO_HTTP_TIMEOUT", "750ms")
		t.Setenv("APP_ENV", "production")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")
		t.Setenv("TRUSTED_PLATFORM", "cloudflare")

		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.Equal(t, "9999", cfg.Port)
		assert.True(t, cfg.DatabaseSSLRequired)
		assert.Equal(t, 3, cfg.DatabaseMaxPoolSize)
		assert.True(t, cfg.DebugEnabled)
		assert.Equal(t, 750*time.Millisecond, cfg.GeoHTTPTimeout)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
		assert.Equal(t, "cloudflare", cfg.TrustedPlatform)
	})
}
