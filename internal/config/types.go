package config

import "time"

type Config struct {
	Server         ServerConfig    `yaml:"server"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Metrics        MetricsConfig   `yaml:"metrics"`
	AllowedDomains []string        `yaml:"allowed_domains"`
	Debug          bool            `yaml:"debug"`
	LogFile        string          `yaml:"log_file"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	UseHTTPS        bool          `yaml:"use_https"`
	UseHTTP2        bool          `yaml:"use_http2"`
	SSLCert         string        `yaml:"ssl_cert"`
	SSLKey          string        `yaml:"ssl_key"`
	SSLCA           string        `yaml:"ssl_ca"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TLS reports whether the configured transport is TLS-backed. The
// multiplexed-stream (HTTP/2) mode always runs over TLS.
func (s ServerConfig) TLS() bool {
	return s.UseHTTPS || s.UseHTTP2
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}
