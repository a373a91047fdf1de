package apicall

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/apicall/config"
	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/observability"
)

func observabilityOn() observability.Config {
	return observability.Config{Tracing: true, Metrics: true}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Headers == nil {
		t.Error("Headers should be initialized")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Observability.ServiceName != "apicall" {
		t.Errorf("Observability.ServiceName = %q", cfg.Observability.ServiceName)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"server", func(c *Config) { c.Backend = "server" }, false},
		{"browser", func(c *Config) { c.Backend = "browser" }, false},
		{"unknown backend", func(c *Config) { c.Backend = "fetch" }, true},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad sample rate", func(c *Config) { c.Observability.SampleRate = 2 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apicall.yml")
	content := `
backend: browser
timeout: 3s
follow_redirects: true
headers:
  X-Client: cli
observability:
  tracing: true
auth:
  type: bearer
  token: abc
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(config.WithConfigFile(path), config.WithEnvFile(filepath.Join(dir, "missing.env")))
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Backend != BackendBrowser {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !cfg.FollowRedirects {
		t.Error("FollowRedirects should be true")
	}
	if cfg.Headers["x-client"] != "cli" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if !cfg.Observability.Tracing || cfg.Observability.Metrics {
		t.Errorf("Observability = %+v", cfg.Observability)
	}
	if cfg.Auth == nil || cfg.Auth.Type != "bearer" || cfg.Auth.Token != "abc" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apicall.yml")
	if err := os.WriteFile(path, []byte("backend: carrier-pigeon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(config.WithConfigFile(path), config.WithEnvFile(filepath.Join(dir, "missing.env"))); !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
