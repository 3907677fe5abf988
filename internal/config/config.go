// Package config holds the server configuration: defaults, an optional YAML
// file, and environment overrides, applied in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the backend server configuration.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	DataDir   string `yaml:"data_dir"`
	UploadDir string `yaml:"upload_dir"`
	DBPath    string `yaml:"db_path"`

	LLM LLMConfig `yaml:"llm"`

	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
	JWTSecret     string `yaml:"jwt_secret"`

	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	RateLimitPerHour   int           `yaml:"rate_limit_per_hour"`
	SessionMaxAge      time.Duration `yaml:"session_max_age"`

	// Memory consolidation knobs. Zero values fall back to the engine
	// defaults.
	MemoryShortTermCap int  `yaml:"memory_short_term_cap"`
	MemoryRetainAll    bool `yaml:"memory_retain_all"`
}

// LLMConfig configures the upstream chat-completion endpoint.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               8000,
		DataDir:            DataDir(),
		UploadDir:          UploadDir(),
		DBPath:             DBPath(),
		AdminUsername:      "admin",
		AdminPassword:      "",
		RateLimitPerMinute: 30,
		RateLimitPerHour:   500,
		SessionMaxAge:      time.Hour,
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   500,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path if
// it exists, then environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CONCIERGE_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("CONCIERGE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("CONCIERGE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("CONCIERGE_ADMIN_USERNAME"); v != "" {
		c.AdminUsername = v
	}
	if v := os.Getenv("CONCIERGE_ADMIN_PASSWORD"); v != "" {
		c.AdminPassword = v
	}
	if v := os.Getenv("CONCIERGE_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("CONCIERGE_SESSION_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SessionMaxAge = d
		}
	}
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
