package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the studio's on-disk configuration.
type Config struct {
	Bind       string   `yaml:"bind,omitempty"`       // HTTP listen address, default :8642
	DataDir    string   `yaml:"dataDir,omitempty"`    // history/presets/usage storage
	HTTPTokens []string `yaml:"httpTokens,omitempty"` // bearer tokens for the API

	Groq      ProviderConfig `yaml:"groq,omitempty"`
	Anthropic ProviderConfig `yaml:"anthropic,omitempty"`

	// DefaultModel is the ambient model used when a run specifies none.
	DefaultModel ModelSelection `yaml:"defaultModel,omitempty"`

	Webhook   WebhookConfig   `yaml:"webhook,omitempty"`
	Analytics AnalyticsConfig `yaml:"analytics,omitempty"`
}

// ProviderConfig holds one provider's credentials.
type ProviderConfig struct {
	APIKey  string `yaml:"apiKey,omitempty"`
	BaseURL string `yaml:"baseUrl,omitempty"`
}

// ModelSelection names a model and its provider.
type ModelSelection struct {
	ID       string `yaml:"id,omitempty"`
	Provider string `yaml:"provider,omitempty"`
}

// WebhookConfig configures completion notifications.
type WebhookConfig struct {
	URL    string `yaml:"url,omitempty"`
	Format string `yaml:"format,omitempty"` // slack, feishu, dingtalk, telegram, custom
}

// AnalyticsConfig tunes usage recording.
type AnalyticsConfig struct {
	FlushSchedule string `yaml:"flushSchedule,omitempty"` // cron spec, default @every 5m
	RetentionDays int    `yaml:"retentionDays,omitempty"` // default 90
}

// Path is the config file location, overridable for tests.
var Path string

func init() {
	home, _ := os.UserHomeDir()
	Path = filepath.Join(home, ".studio", "config.yaml")
}

// Load reads the config file. A missing file yields a default config
// rather than an error, so first runs work without setup.
func Load() (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(Path)
	if os.IsNotExist(err) {
		applyDefaults(cfg)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bind == "" {
		cfg.Bind = ":8642"
	}
	if cfg.DataDir == "" {
		home, _ := os.UserHomeDir()
		cfg.DataDir = filepath.Join(home, ".studio", "data")
	}
}

// Save writes the config file.
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(Path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(Path, data, 0644)
}

// GroqAPIKey returns the Groq key, environment first, then config.
func (c *Config) GroqAPIKey() string {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return key
	}
	return c.Groq.APIKey
}

// AnthropicAPIKey returns the Anthropic key, environment first.
func (c *Config) AnthropicAPIKey() string {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key
	}
	return c.Anthropic.APIKey
}

// BindAddr returns the listen address, honoring the STUDIO_BIND override.
func (c *Config) BindAddr() string {
	if addr := os.Getenv("STUDIO_BIND"); addr != "" {
		return addr
	}
	return c.Bind
}
