package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment override, e.g. MINIGATE_PORT.
const envPrefix = "MINIGATE_"

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// Load builds the effective configuration: defaults, overlaid by the yaml
// file at path (skipped when path is empty), overlaid by MINIGATE_*
// environment variables, then validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Host, "HOST")
	setInt(&c.Server.Port, "PORT")
	setBool(&c.Server.UseHTTPS, "USE_HTTPS")
	setBool(&c.Server.UseHTTP2, "USE_HTTP2")
	setString(&c.Server.SSLCert, "SSL_CERT")
	setString(&c.Server.SSLKey, "SSL_KEY")
	setString(&c.Server.SSLCA, "SSL_CA")
	setBool(&c.Debug, "DEBUG")
	setString(&c.LogFile, "LOG_FILE")
	setBool(&c.RateLimit.Enabled, "RATE_LIMIT_ENABLED")
	setInt(&c.RateLimit.RequestsPerMinute, "RATE_LIMIT_RPM")

	if v, ok := lookup("ALLOWED_DOMAINS"); ok {
		domains := strings.Split(v, ",")
		c.AllowedDomains = c.AllowedDomains[:0]
		for _, d := range domains {
			if d = strings.TrimSpace(d); d != "" {
				c.AllowedDomains = append(c.AllowedDomains, d)
			}
		}
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.TLS() && (c.Server.SSLCert == "" || c.Server.SSLKey == "") {
		return fmt.Errorf("https/http2 requires both ssl_cert and ssl_key")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive, got %d", c.RateLimit.RequestsPerMinute)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
		}
		if c.Metrics.Path == "" {
			return fmt.Errorf("metrics path cannot be empty")
		}
	}

	return nil
}
