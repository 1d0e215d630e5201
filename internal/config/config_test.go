package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	yaml := []byte(`
server:
  port: 18800
  host: localhost
provider:
  api_key: test-key
  base_url: http://localhost:9090
models:
  fast: flash-model
  deep: pro-model
  cascades:
    pro-model: [pro-model, flash-model]
sessions:
  idle_ttl: 30m
`)
	f, _ := os.CreateTemp("", "config-*.yaml")
	f.Write(yaml)
	f.Close()
	defer os.Remove(f.Name())

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 18800 {
		t.Errorf("Expected port 18800, got %d", cfg.Server.Port)
	}
	if cfg.Models.Deep != "pro-model" {
		t.Errorf("Expected deep tier pro-model, got %s", cfg.Models.Deep)
	}
	if cfg.Sessions.IdleTTL.Std() != 30*time.Minute {
		t.Errorf("Expected idle_ttl 30m, got %s", cfg.Sessions.IdleTTL.Std())
	}
	if cfg.Server.WriteTimeout.Std() != 300*time.Second {
		t.Errorf("Expected default write timeout 300s, got %s", cfg.Server.WriteTimeout.Std())
	}
	if cfg.Sessions.HistoryWindow != 10 {
		t.Errorf("Expected default history window 10, got %d", cfg.Sessions.HistoryWindow)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	yaml := []byte(`
provider:
  api_key: test-key
sessions:
  idle_ttl: soon
`)
	f, _ := os.CreateTemp("", "config-*.yaml")
	f.Write(yaml)
	f.Close()
	defer os.Remove(f.Name())

	if _, err := Load(f.Name()); err == nil {
		t.Error("Expected parse error for malformed duration")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Provider.APIKey = "test-key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestValidateMissingAPIKey(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for missing API key")
	}
}

func TestValidateInvalidPort(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: -1}}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for invalid port")
	}
}

func TestValidateDuplicateCascadeEntry(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Provider.APIKey = "test-key"
	cfg.Models.Cascades = map[string][]string{
		"pro": {"pro", "flash", "pro"},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for duplicate cascade entry")
	}
}
