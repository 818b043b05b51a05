// Copyright 2025 Inventory Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	// ErrMissingRequiredField is returned when a required configuration field is missing
	ErrMissingRequiredField = errors.New("missing required configuration field")
	// ErrInvalidConfigValue is returned when a configuration value is invalid
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// placeholderAPIKeys are values that indicate the operator never configured a
// real credential. They are rejected the same way an empty key is.
var placeholderAPIKeys = []string{
	"your-api-key-here",
	"tu-api-key-aqui",
	"changeme",
}

// Config represents the complete application configuration
type Config struct {
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Generation GenerationConfig `mapstructure:"generation"`
	Context    ContextConfig    `mapstructure:"context"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// OpenAIConfig contains completion service configuration
type OpenAIConfig struct {
	APIKey   string `mapstructure:"apikey"`
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// DatabaseConfig contains business and conversation store configuration
type DatabaseConfig struct {
	// Driver selects the business data backend: "sqlite" or "postgres"
	Driver string `mapstructure:"driver"`
	// DSN is the connection string for the business database. For sqlite it
	// is a file path, for postgres a pgx connection URL.
	DSN string `mapstructure:"dsn"`
	// ChatDBPath is the SQLite file holding conversation history
	ChatDBPath string `mapstructure:"chat_db_path"`
}

// GenerationConfig contains completion generation parameters
type GenerationConfig struct {
	Temperature float32 `mapstructure:"temperature"`
	// RetryTemperature is the lowered temperature used on the degraded retry
	RetryTemperature float32 `mapstructure:"retry_temperature"`
	TopP             float32 `mapstructure:"top_p"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	// TimeoutSeconds bounds each completion call
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ContextConfig contains business-context assembly parameters
type ContextConfig struct {
	// ProductSample caps how many products the formatter lists
	ProductSample int `mapstructure:"product_sample"`
	// HistoryLimit bounds turns loaded for display
	HistoryLimit int `mapstructure:"history_limit"`
	// ContextWindow bounds turns forwarded to the completion service
	ContextWindow int `mapstructure:"context_window"`
	// LowStockThreshold marks products as low stock in narrative insights
	LowStockThreshold int `mapstructure:"low_stock_threshold"`
	// CriticalStockThreshold drives the stock-critical aggregate
	CriticalStockThreshold int `mapstructure:"critical_stock_threshold"`
	// TopN sizes the top-products and top-clients rankings
	TopN int `mapstructure:"top_n"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions contains options for configuration loading
type LoadOptions struct {
	ConfigPath       string
	ValidateRequired bool
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over config file values.
func Load(configPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath:       configPath,
		ValidateRequired: true,
	})
}

// LoadWithOptions loads configuration with additional options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := setConfigFile(v, opts.ConfigPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("INVENTORY_ASSISTANT")

	setEnvironmentMappings(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if opts.ValidateRequired {
		if err := validateConfig(&config); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.endpoint", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./inventory.db")
	v.SetDefault("database.chat_db_path", "./chat.db")

	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.retry_temperature", 0.3)
	v.SetDefault("generation.top_p", 0.95)
	v.SetDefault("generation.max_tokens", 2048)
	v.SetDefault("generation.timeout_seconds", 60)

	v.SetDefault("context.product_sample", 20)
	v.SetDefault("context.history_limit", 10)
	v.SetDefault("context.context_window", 5)
	v.SetDefault("context.low_stock_threshold", 10)
	v.SetDefault("context.critical_stock_threshold", 5)
	v.SetDefault("context.top_n", 5)

	v.SetDefault("server.port", "8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// setConfigFile sets the configuration file path with fallback logic
func setConfigFile(v *viper.Viper, configPath string) error {
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return fmt.Errorf("config file specified by CONFIG_PATH does not exist: %s", envPath)
		}
		v.SetConfigFile(envPath)
		return nil
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	for _, path := range []string{"./configs/config.yaml", "./config.yaml"} {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no config file found in default locations (./configs/config.yaml, ./config.yaml)")
}

// setEnvironmentMappings sets explicit environment variable mappings
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"OPENAI_API_KEY":   "openai.apikey",
		"OPENAI_ENDPOINT":  "openai.endpoint",
		"OPENAI_MODEL":     "openai.model",
		"INVENTORY_DRIVER": "database.driver",
		"INVENTORY_DSN":    "database.dsn",
		"CHAT_DB_PATH":     "database.chat_db_path",
		"PORT":             "server.port",
		"LOG_LEVEL":        "logging.level",
		"LOG_FORMAT":       "logging.format",
		"LOG_OUTPUT":       "logging.output",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig validates the configuration for required fields and valid values
func validateConfig(config *Config) error {
	var errs []ValidationError

	if config.OpenAI.APIKey == "" {
		errs = append(errs, ValidationError{
			Field:   "openai.apikey",
			Message: "completion API key is required. Set via config file or OPENAI_API_KEY environment variable",
		})
	} else if isPlaceholderKey(config.OpenAI.APIKey) {
		errs = append(errs, ValidationError{
			Field:   "openai.apikey",
			Message: "completion API key is a placeholder value; configure a real credential",
		})
	}

	validDrivers := []string{"sqlite", "postgres"}
	if !contains(validDrivers, config.Database.Driver) {
		errs = append(errs, ValidationError{
			Field:   "database.driver",
			Message: fmt.Sprintf("driver must be one of: %s", strings.Join(validDrivers, ", ")),
		})
	}

	if config.Database.DSN == "" {
		errs = append(errs, ValidationError{
			Field:   "database.dsn",
			Message: "business database DSN is required",
		})
	}

	if config.Database.ChatDBPath == "" {
		errs = append(errs, ValidationError{
			Field:   "database.chat_db_path",
			Message: "conversation database path is required",
		})
	}

	if config.Generation.Temperature < 0 || config.Generation.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "generation.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if config.Generation.RetryTemperature < 0 || config.Generation.RetryTemperature > config.Generation.Temperature {
		errs = append(errs, ValidationError{
			Field:   "generation.retry_temperature",
			Message: "retry_temperature must be between 0 and the primary temperature",
		})
	}

	if config.Generation.MaxTokens <= 0 {
		errs = append(errs, ValidationError{
			Field:   "generation.max_tokens",
			Message: "max_tokens must be greater than 0",
		})
	}

	if config.Generation.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "generation.timeout_seconds",
			Message: "timeout_seconds must be greater than 0",
		})
	}

	if config.Context.ProductSample <= 0 {
		errs = append(errs, ValidationError{
			Field:   "context.product_sample",
			Message: "product_sample must be greater than 0",
		})
	}

	if config.Context.ContextWindow <= 0 {
		errs = append(errs, ValidationError{
			Field:   "context.context_window",
			Message: "context_window must be greater than 0",
		})
	}

	if config.Context.TopN <= 0 {
		errs = append(errs, ValidationError{
			Field:   "context.top_n",
			Message: "top_n must be greater than 0",
		})
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Logging.Format) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	if len(errs) > 0 {
		var errorMessages []string
		for _, err := range errs {
			errorMessages = append(errorMessages, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}

// isPlaceholderKey reports whether the API key is a known placeholder value
func isPlaceholderKey(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	for _, placeholder := range placeholderAPIKeys {
		if lower == placeholder {
			return true
		}
	}
	return false
}

// MaskSensitiveValues returns a copy of the config with sensitive values masked
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c

	if masked.OpenAI.APIKey != "" {
		masked.OpenAI.APIKey = maskValue(masked.OpenAI.APIKey)
	}
	if masked.Database.DSN != "" && c.Database.Driver == "postgres" {
		masked.Database.DSN = maskValue(masked.Database.DSN)
	}

	return &masked
}

// maskValue masks sensitive values, showing only the first 8 characters
func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// WatchConfig enables configuration hot-reloading for development
func WatchConfig(configPath string, callback func(*Config)) error {
	v := viper.New()

	if err := setConfigFile(v, configPath); err != nil {
		return err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		config, err := LoadWithOptions(LoadOptions{
			ConfigPath:       configPath,
			ValidateRequired: true,
		})
		if err != nil {
			fmt.Printf("Failed to reload config %s: %v\n", e.Name, err)
			return
		}

		callback(config)
	})

	return nil
}
