package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "minigate.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.TLS())
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 3000
  read_timeout: 5s
debug: true
allowed_domains:
  - https://a.com
  - https://b.com
rate_limit:
  enabled: true
  requests_per_minute: 20
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.AllowedDomains)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)

	// Untouched fields keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MINIGATE_PORT", "9999")
	t.Setenv("MINIGATE_DEBUG", "true")
	t.Setenv("MINIGATE_ALLOWED_DOMAINS", "https://x.com, https://y.com")
	t.Setenv("MINIGATE_RATE_LIMIT_RPM", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"https://x.com", "https://y.com"}, cfg.AllowedDomains)
	assert.Equal(t, 7, cfg.RateLimit.RequestsPerMinute)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 3000\n")
	t.Setenv("MINIGATE_PORT", "4000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "https without key material",
			mutate:  func(c *Config) { c.Server.UseHTTPS = true },
			wantErr: "ssl_cert and ssl_key",
		},
		{
			name: "http2 with cert but no key",
			mutate: func(c *Config) {
				c.Server.UseHTTP2 = true
				c.Server.SSLCert = "cert.pem"
			},
			wantErr: "ssl_cert and ssl_key",
		},
		{
			name:    "rate limit without quota",
			mutate:  func(c *Config) { c.RateLimit.RequestsPerMinute = 0 },
			wantErr: "requests_per_minute",
		},
		{
			name:    "metrics without path",
			mutate:  func(c *Config) { c.Metrics.Path = "" },
			wantErr: "metrics path",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("tls with full material passes", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.UseHTTPS = true
		cfg.Server.SSLCert = "cert.pem"
		cfg.Server.SSLKey = "key.pem"
		assert.NoError(t, cfg.Validate())
	})
}
