// Package config provides configuration structures and loading logic for the
// guardstack application.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/guardstack/guardstack/pkg/rules"
)

// Config holds the global configuration.
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Verifier  VerifierConfig  `yaml:"verifier"`
	Rails     RailsConfig     `yaml:"rails"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ProviderConfig selects the completion backend.
type ProviderConfig struct {
	Name           string `yaml:"name"`
	Model          string `yaml:"model"`
	Endpoint       string `yaml:"endpoint"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// VerifierConfig tunes the chain-of-verification pipeline.
type VerifierConfig struct {
	Parallelism    int    `yaml:"parallelism"`
	QuestionFilter string `yaml:"question_filter"`
	PromptsDir     string `yaml:"prompts_dir"`
}

// RailsConfig locates the base rule settings and the optional fragment
// catalog file.
type RailsConfig struct {
	BaseFile    string `yaml:"base_file"`
	CatalogFile string `yaml:"catalog_file"`
}

// TelemetryConfig holds configuration for OpenTelemetry and the Prometheus
// exposition endpoint.
type TelemetryConfig struct {
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
	MetricsAddress string `yaml:"metrics_address"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads configuration from a file and applies environment variable
// overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		// Defaults
		Provider: ProviderConfig{
			Name:  "ollama",
			Model: "llama3",
		},
		Verifier: VerifierConfig{
			Parallelism:    1,
			QuestionFilter: "leading",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	if path != "" {
		//nolint:gosec // Config file path is controlled by the operator.
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadBaseRails reads the base rule settings tree the composition engine
// seeds its accumulator with. An empty path yields an empty tree.
func (c *Config) LoadBaseRails() (rules.Tree, error) {
	if c.Rails.BaseFile == "" {
		return rules.Tree{}, nil
	}
	//nolint:gosec // Base rails path is controlled by the operator.
	data, err := os.ReadFile(c.Rails.BaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read base rails file %s: %w", c.Rails.BaseFile, err)
	}
	tree, err := rules.FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base rails file %s: %w", c.Rails.BaseFile, err)
	}
	return tree, nil
}

// APIKey resolves the provider API key from the configured environment
// variable, if any.
func (c *Config) APIKey() string {
	if c.Provider.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Provider.APIKeyEnv)
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("GUARDSTACK_PROVIDER"); val != "" {
		cfg.Provider.Name = val
	}
	if val := os.Getenv("GUARDSTACK_MODEL"); val != "" {
		cfg.Provider.Model = val
	}
	if val := os.Getenv("GUARDSTACK_ENDPOINT"); val != "" {
		cfg.Provider.Endpoint = val
	}

	if val := os.Getenv("GUARDSTACK_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("GUARDSTACK_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}

	if val := os.Getenv("GUARDSTACK_BASE_RAILS"); val != "" {
		cfg.Rails.BaseFile = val
	}
	if val := os.Getenv("GUARDSTACK_CATALOG"); val != "" {
		cfg.Rails.CatalogFile = val
	}

	if val := os.Getenv("GUARDSTACK_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}

// Validate performs validation of the entire configuration.
func (c *Config) Validate() error {
	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("provider configuration: %w", err)
	}

	if err := c.Verifier.Validate(); err != nil {
		return fmt.Errorf("verifier configuration: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging configuration: %w", err)
	}

	return nil
}

// Validate performs validation of provider configuration.
func (c *ProviderConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("provider name is required")
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	return nil
}

// Validate performs validation of verifier configuration.
func (c *VerifierConfig) Validate() error {
	if c.Parallelism < 1 {
		c.Parallelism = 1
	}

	filter := strings.TrimSpace(strings.ToLower(c.QuestionFilter))
	switch filter {
	case "", "leading", "trailing":
		if filter == "" {
			filter = "leading"
		}
		c.QuestionFilter = filter
		return nil
	default:
		return fmt.Errorf("invalid question_filter %q, supported filters: leading, trailing", c.QuestionFilter)
	}
}

// Validate performs validation of logging configuration.
func (c *LoggingConfig) Validate() error {
	if strings.TrimSpace(c.Level) == "" {
		c.Level = "info"
	}

	level := strings.TrimSpace(strings.ToLower(c.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Level = level
		return nil
	default:
		return fmt.Errorf("invalid log level %q, supported levels: debug, info, warn, error", c.Level)
	}
}
