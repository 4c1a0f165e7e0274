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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// TestLoad_Success tests successful loading of a valid config file
func TestLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  host: "localhost"
  port: 8443

logging:
  level: "debug"
  format: "json"

auth:
  jwt_secret: "test-secret"
  token_ttl: 30m
  issuer: "ballotbox-test"

webauthn:
  id: "vote.example.com"
  display_name: "Example Election"
  origins:
    - "https://vote.example.com"
  user_verification: "required"

storage:
  driver: "sqlite"
  dsn: "/data/ballotbox.db"

risk:
  endpoint: "https://risk.example.com/score"
  api_key: "risk-key"
  timeout: 5s

metrics:
  enabled: true
  path: "/metrics"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %v, want localhost", cfg.Server.Host)
	}
	if cfg.Server.Port != 8443 {
		t.Errorf("Server.Port = %v, want 8443", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %v, want json", cfg.Logging.Format)
	}
	if cfg.Auth.JWTSecret != "test-secret" {
		t.Errorf("Auth.JWTSecret = %v, want test-secret", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("Auth.TokenTTL = %v, want 30m", cfg.Auth.TokenTTL)
	}
	if cfg.WebAuthn.RPID != "vote.example.com" {
		t.Errorf("WebAuthn.RPID = %v, want vote.example.com", cfg.WebAuthn.RPID)
	}
	if len(cfg.WebAuthn.RPOrigins) != 1 || cfg.WebAuthn.RPOrigins[0] != "https://vote.example.com" {
		t.Errorf("WebAuthn.RPOrigins = %v, want [https://vote.example.com]", cfg.WebAuthn.RPOrigins)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %v, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN != "/data/ballotbox.db" {
		t.Errorf("Storage.DSN = %v, want /data/ballotbox.db", cfg.Storage.DSN)
	}
	if cfg.Risk.Endpoint != "https://risk.example.com/score" {
		t.Errorf("Risk.Endpoint = %v, want https://risk.example.com/score", cfg.Risk.Endpoint)
	}
	if cfg.Risk.Timeout != 5*time.Second {
		t.Errorf("Risk.Timeout = %v, want 5s", cfg.Risk.Timeout)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

// TestLoad_Defaults tests that an empty path yields a usable default config
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %v, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8443 {
		t.Errorf("Server.Port = %v, want 8443", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %v, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %v, want text", cfg.Logging.Format)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 1h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.Issuer != "ballotbox" {
		t.Errorf("Auth.Issuer = %v, want ballotbox", cfg.Auth.Issuer)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %v, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN != "ballotbox.db" {
		t.Errorf("Storage.DSN = %v, want ballotbox.db", cfg.Storage.DSN)
	}
	if cfg.Risk.Timeout != 10*time.Second {
		t.Errorf("Risk.Timeout = %v, want 10s", cfg.Risk.Timeout)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %v, want /metrics", cfg.Metrics.Path)
	}
	if cfg.WebAuthn.RPID != "localhost" {
		t.Errorf("WebAuthn.RPID = %v, want localhost", cfg.WebAuthn.RPID)
	}
	if cfg.WebAuthn.UserVerification == "" {
		t.Error("WebAuthn.UserVerification should be defaulted")
	}
}

// TestLoad_FileNotFound tests loading a non-existent config file
func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if cfg != nil {
		t.Errorf("Load() = %v, want nil", cfg)
	}
}

// TestLoad_InvalidYAML tests loading an invalid YAML file
func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidContent := `
server:
  host: "localhost"
  invalid: [unclosed array
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if cfg != nil {
		t.Errorf("Load() = %v, want nil", cfg)
	}
}

// TestLoad_ValidationFailure tests loading a config that fails validation
func TestLoad_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.yaml")

	invalidContent := `
storage:
  driver: "postgres"
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() error = nil, want validation error")
	}
	if cfg != nil {
		t.Errorf("Load() = %v, want nil", cfg)
	}
}

// TestApplyEnvOverrides_ServerSettings tests environment variable overrides for server settings
func TestApplyEnvOverrides_ServerSettings(t *testing.T) {
	t.Setenv("BALLOTBOX_HOST", "127.0.0.1")
	t.Setenv("BALLOTBOX_PORT", "9000")

	cfg := Config{Server: ServerConfig{Host: "localhost", Port: 8443}}
	applyEnvOverrides(&cfg)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %v, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %v, want 9000", cfg.Server.Port)
	}
}

// TestApplyEnvOverrides_InvalidPort tests that invalid port values are ignored
func TestApplyEnvOverrides_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port string
	}{
		{"not a number", "invalid"},
		{"negative", "-1000"},
		{"out of range", "70000"},
		{"decimal", "9000.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BALLOTBOX_PORT", tt.port)

			cfg := Config{Server: ServerConfig{Port: 8443}}
			applyEnvOverrides(&cfg)

			if cfg.Server.Port != 8443 {
				t.Errorf("Server.Port = %v, want 8443 (invalid value ignored)", cfg.Server.Port)
			}
		})
	}
}

// TestApplyEnvOverrides_WebAuthn tests environment variable overrides for the relying party
func TestApplyEnvOverrides_WebAuthn(t *testing.T) {
	t.Setenv("WEBAUTHN_RP_ID", "vote.example.com")
	t.Setenv("WEBAUTHN_RP_NAME", "Example Election")
	t.Setenv("WEBAUTHN_ORIGIN", "https://vote.example.com,https://admin.example.com")

	var cfg Config
	applyEnvOverrides(&cfg)

	if cfg.WebAuthn.RPID != "vote.example.com" {
		t.Errorf("WebAuthn.RPID = %v, want vote.example.com", cfg.WebAuthn.RPID)
	}
	if cfg.WebAuthn.RPDisplayName != "Example Election" {
		t.Errorf("WebAuthn.RPDisplayName = %v, want Example Election", cfg.WebAuthn.RPDisplayName)
	}
	if len(cfg.WebAuthn.RPOrigins) != 2 {
		t.Fatalf("len(WebAuthn.RPOrigins) = %v, want 2", len(cfg.WebAuthn.RPOrigins))
	}
	if cfg.WebAuthn.RPOrigins[1] != "https://admin.example.com" {
		t.Errorf("WebAuthn.RPOrigins[1] = %v, want https://admin.example.com", cfg.WebAuthn.RPOrigins[1])
	}
}

// TestApplyEnvOverrides_StorageAndRisk tests storage and risk scorer overrides
func TestApplyEnvOverrides_StorageAndRisk(t *testing.T) {
	t.Setenv("BALLOTBOX_STORAGE_DRIVER", "memory")
	t.Setenv("BALLOTBOX_DB", "/tmp/override.db")
	t.Setenv("BALLOTBOX_RISK_ENDPOINT", "https://risk.example.com")
	t.Setenv("BALLOTBOX_RISK_API_KEY", "key-123")
	t.Setenv("BALLOTBOX_JWT_SECRET", "env-secret")

	var cfg Config
	applyEnvOverrides(&cfg)

	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %v, want memory", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN != "/tmp/override.db" {
		t.Errorf("Storage.DSN = %v, want /tmp/override.db", cfg.Storage.DSN)
	}
	if cfg.Risk.Endpoint != "https://risk.example.com" {
		t.Errorf("Risk.Endpoint = %v, want https://risk.example.com", cfg.Risk.Endpoint)
	}
	if cfg.Risk.APIKey != "key-123" {
		t.Errorf("Risk.APIKey = %v, want key-123", cfg.Risk.APIKey)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("Auth.JWTSecret = %v, want env-secret", cfg.Auth.JWTSecret)
	}
}

// TestApplyEnvOverrides_TLS tests that TLS env overrides enable TLS
func TestApplyEnvOverrides_TLS(t *testing.T) {
	t.Setenv("BALLOTBOX_TLS_CERT", "/etc/ballotbox/cert.pem")
	t.Setenv("BALLOTBOX_TLS_KEY", "/etc/ballotbox/key.pem")

	var cfg Config
	applyEnvOverrides(&cfg)

	if !cfg.TLS.Enabled {
		t.Error("TLS.Enabled = false, want true")
	}
	if cfg.TLS.CertFile != "/etc/ballotbox/cert.pem" {
		t.Errorf("TLS.CertFile = %v, want /etc/ballotbox/cert.pem", cfg.TLS.CertFile)
	}
	if cfg.TLS.KeyFile != "/etc/ballotbox/key.pem" {
		t.Errorf("TLS.KeyFile = %v, want /etc/ballotbox/key.pem", cfg.TLS.KeyFile)
	}
}

// TestValidate tests configuration validation
func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.SetDefaults()
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 65536 }, true},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"uppercase log level", func(c *Config) { c.Logging.Level = "INFO" }, false},
		{"invalid log format", func(c *Config) { c.Logging.Format = "console" }, true},
		{"invalid storage driver", func(c *Config) { c.Storage.Driver = "postgres" }, true},
		{"memory driver without dsn", func(c *Config) { c.Storage.Driver = "memory"; c.Storage.DSN = "" }, false},
		{"tls without cert", func(c *Config) { c.TLS.Enabled = true; c.TLS.KeyFile = "key.pem" }, true},
		{"tls without key", func(c *Config) { c.TLS.Enabled = true; c.TLS.CertFile = "cert.pem" }, true},
		{"invalid webauthn", func(c *Config) { c.WebAuthn.RPID = "" }, true},
		{"invalid user verification", func(c *Config) { c.WebAuthn.UserVerification = "sometimes" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !tt.wantError && err != nil {
				t.Fatalf("Validate() error = %v, want nil", err)
			}
		})
	}
}

// TestLoad_WithEnvOverrides tests that env overrides win over file values
func TestLoad_WithEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  host: "localhost"
  port: 8443

logging:
  level: "info"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	t.Setenv("BALLOTBOX_HOST", "0.0.0.0")
	t.Setenv("BALLOTBOX_PORT", "9000")
	t.Setenv("BALLOTBOX_LOG_LEVEL", "debug")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %v, want 0.0.0.0 (env override)", cfg.Server.Host)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %v, want 9000 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug (env override)", cfg.Logging.Level)
	}
}

// TestSetDefaults_PreservesExplicitValues tests that SetDefaults keeps set fields
func TestSetDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Server:  ServerConfig{Host: "10.0.0.1", Port: 9999},
		Logging: LoggingConfig{Level: "warn", Format: "json"},
		WebAuthn: ceremony.Config{
			RPID:          "vote.example.com",
			RPDisplayName: "Example Election",
			RPOrigins:     []string{"https://vote.example.com"},
		},
	}
	cfg.SetDefaults()

	if cfg.Server.Host != "10.0.0.1" || cfg.Server.Port != 9999 {
		t.Errorf("Server = %+v, explicit values should be preserved", cfg.Server)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, explicit values should be preserved", cfg.Logging)
	}
	if cfg.WebAuthn.RPID != "vote.example.com" {
		t.Errorf("WebAuthn.RPID = %v, explicit value should be preserved", cfg.WebAuthn.RPID)
	}
}
