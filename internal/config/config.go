// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ballotbox.
//
// go-ballotbox is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
	"github.com/jeremyhahn/go-ballotbox/pkg/ratelimit"
)

// Config represents the complete server configuration
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	TLS       TLSConfig        `yaml:"tls"`
	Logging   LoggingConfig    `yaml:"logging"`
	Auth      AuthConfig       `yaml:"auth"`
	WebAuthn  ceremony.Config  `yaml:"webauthn"`
	Storage   StorageConfig    `yaml:"storage"`
	Risk      RiskConfig       `yaml:"risk"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	RateLimit ratelimit.Config `yaml:"rate_limit"`
}

// ServerConfig contains server-level settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// AuthConfig controls session token issuance
type AuthConfig struct {
	// JWTSecret signs session tokens (HS256). Required in production; a
	// random secret is generated when empty, invalidating sessions across
	// restarts.
	JWTSecret string `yaml:"jwt_secret"`

	// TokenTTL is how long issued session tokens remain valid.
	TokenTTL time.Duration `yaml:"token_ttl"`

	// Issuer is the token issuer claim.
	Issuer string `yaml:"issuer"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `yaml:"driver"`

	// DSN is the SQLite database path when the sqlite driver is selected.
	DSN string `yaml:"dsn"`
}

// RiskConfig controls the authentication risk scorer
type RiskConfig struct {
	// Endpoint is the external scoring service URL. Empty selects the local
	// heuristic scorer.
	Endpoint string `yaml:"endpoint"`

	// APIKey authenticates against the scoring service.
	APIKey string `yaml:"api_key"`

	// Timeout bounds each scoring request.
	Timeout time.Duration `yaml:"timeout"`
}

// MetricsConfig controls the Prometheus metrics endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file and applies environment variable
// overrides. An empty path yields the defaults with overrides applied.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		// #nosec G304 - Config file path is provided by admin/user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// SetDefaults fills in defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8443
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = time.Hour
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "ballotbox"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.DSN == "" {
		c.Storage.DSN = "ballotbox.db"
	}
	if c.Risk.Timeout == 0 {
		c.Risk.Timeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 300
	}
	if c.WebAuthn.RPID == "" {
		c.WebAuthn.RPID = "localhost"
	}
	if c.WebAuthn.RPDisplayName == "" {
		c.WebAuthn.RPDisplayName = "Fingerprint Voting System"
	}
	if len(c.WebAuthn.RPOrigins) == 0 {
		c.WebAuthn.RPOrigins = []string{"http://localhost:3000"}
	}
	c.WebAuthn.SetDefaults()
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.TLS.Enabled {
		if c.TLS.CertFile == "" {
			return fmt.Errorf("tls cert_file is required when TLS is enabled")
		}
		if c.TLS.KeyFile == "" {
			return fmt.Errorf("tls key_file is required when TLS is enabled")
		}
	}

	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("invalid storage driver: %s", c.Storage.Driver)
	}
	if c.Storage.Driver == "sqlite" && c.Storage.DSN == "" {
		return fmt.Errorf("storage dsn is required for the sqlite driver")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("rate limit requests_per_minute must be positive")
	}

	if err := c.WebAuthn.Validate(); err != nil {
		return fmt.Errorf("webauthn: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("BALLOTBOX_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("BALLOTBOX_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			log.Printf("Warning: invalid BALLOTBOX_PORT value %q, using default %d: %v",
				portStr, cfg.Server.Port, err)
		} else if port < 1 || port > 65535 {
			log.Printf("Warning: invalid BALLOTBOX_PORT value %q (out of range 1-65535), using default %d",
				portStr, cfg.Server.Port)
		} else {
			cfg.Server.Port = port
		}
	}

	if level := os.Getenv("BALLOTBOX_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("BALLOTBOX_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	if secret := os.Getenv("BALLOTBOX_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	if cert := os.Getenv("BALLOTBOX_TLS_CERT"); cert != "" {
		cfg.TLS.Enabled = true
		cfg.TLS.CertFile = cert
	}
	if key := os.Getenv("BALLOTBOX_TLS_KEY"); key != "" {
		cfg.TLS.Enabled = true
		cfg.TLS.KeyFile = key
	}

	if driver := os.Getenv("BALLOTBOX_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if dsn := os.Getenv("BALLOTBOX_DB"); dsn != "" {
		cfg.Storage.DSN = dsn
	}

	if rpID := os.Getenv("WEBAUTHN_RP_ID"); rpID != "" {
		cfg.WebAuthn.RPID = rpID
	}
	if rpName := os.Getenv("WEBAUTHN_RP_NAME"); rpName != "" {
		cfg.WebAuthn.RPDisplayName = rpName
	}
	if origin := os.Getenv("WEBAUTHN_ORIGIN"); origin != "" {
		cfg.WebAuthn.RPOrigins = strings.Split(origin, ",")
	}

	if endpoint := os.Getenv("BALLOTBOX_RISK_ENDPOINT"); endpoint != "" {
		cfg.Risk.Endpoint = endpoint
	}
	if apiKey := os.Getenv("BALLOTBOX_RISK_API_KEY"); apiKey != "" {
		cfg.Risk.APIKey = apiKey
	}
}
