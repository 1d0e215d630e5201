// Package config loads and validates service configuration from a YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Models   ModelsConfig   `yaml:"models"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Sessions SessionsConfig `yaml:"sessions"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Log      LogConfig      `yaml:"log"`
}

// Duration wraps time.Duration so YAML accepts human-readable values
// like "30s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// ProviderConfig holds generative model provider settings.
type ProviderConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Timeout Duration `yaml:"timeout"`
}

// ModelsConfig names the model tiers and their overload fallback chains.
type ModelsConfig struct {
	Fast     string              `yaml:"fast"`
	Deep     string              `yaml:"deep"`
	Cascades map[string][]string `yaml:"cascades"`
}

// StorageConfig holds object storage settings. An empty endpoint
// disables the storage collaborator.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// RedisConfig holds the optional Redis session store settings.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SessionsConfig controls session lifetime and history threading.
type SessionsConfig struct {
	IdleTTL       Duration `yaml:"idle_ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
	HistoryWindow int      `yaml:"history_window"`
}

// TasksConfig controls background report task retention.
type TasksConfig struct {
	Retention Duration `yaml:"retention"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from the given YAML file, then applies
// environment overrides and defaults. An empty path skips the file and
// uses environment/defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.Provider.APIKey == "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" && c.Provider.APIKey == "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("AGENT_SERVICE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		c.Storage.Endpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		c.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		c.Storage.SecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8001
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(30 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		// Streaming responses and report-sized generations outlive the
		// usual 30s handler budget.
		c.Server.WriteTimeout = Duration(300 * time.Second)
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = Duration(120 * time.Second)
	}
	if c.Models.Fast == "" {
		c.Models.Fast = "gemini-2.5-flash"
	}
	if c.Models.Deep == "" {
		c.Models.Deep = "gemini-2.5-pro"
	}
	if len(c.Models.Cascades) == 0 {
		c.Models.Cascades = map[string][]string{
			"gemini-2.5-pro":   {"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.5-flash-lite"},
			"gemini-2.5-flash": {"gemini-2.5-flash", "gemini-2.5-flash-lite", "gemini-2.0-flash"},
		}
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "portfolio-files"
	}
	if c.Sessions.IdleTTL == 0 {
		c.Sessions.IdleTTL = Duration(time.Hour)
	}
	if c.Sessions.SweepInterval == 0 {
		c.Sessions.SweepInterval = Duration(5 * time.Minute)
	}
	if c.Sessions.HistoryWindow == 0 {
		c.Sessions.HistoryWindow = 10
	}
	if c.Tasks.Retention == 0 {
		c.Tasks.Retention = Duration(15 * time.Minute)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider API key is required (set GEMINI_API_KEY or GOOGLE_API_KEY)")
	}
	if c.Models.Fast == "" || c.Models.Deep == "" {
		return fmt.Errorf("both fast and deep model tiers must be named")
	}
	for model, chain := range c.Models.Cascades {
		if len(chain) == 0 {
			return fmt.Errorf("cascade for %s is empty", model)
		}
		seen := make(map[string]bool, len(chain))
		for _, m := range chain {
			if seen[m] {
				return fmt.Errorf("cascade for %s lists %s twice", model, m)
			}
			seen[m] = true
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis enabled but no address configured")
	}
	return nil
}
