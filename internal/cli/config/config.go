package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MODELCORE_LOG_LEVEL
const EnvPrefix = "MODELCORE"

// Output formats
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
)

// Config represents the modelcore configuration
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Eval   EvalConfig   `mapstructure:"eval"`
	Output OutputConfig `mapstructure:"output"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// EvalConfig represents expression evaluation configuration
type EvalConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// OutputConfig represents CLI output configuration
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// Load loads the configuration. With an empty path it looks for
// modelcore.yaml or modelcore.yml in the working directory and falls back to
// defaults when there is none; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("eval.cache_size", 256)
	v.SetDefault("output.format", FormatTable)
	v.SetDefault("output.no_color", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("modelcore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got: %s", cfg.Log.Level)
	}
	if cfg.Eval.CacheSize < 0 {
		return fmt.Errorf("eval.cache_size must not be negative, got: %d", cfg.Eval.CacheSize)
	}
	if cfg.Output.Format != FormatTable && cfg.Output.Format != FormatYAML {
		return fmt.Errorf("output.format must be %q or %q, got: %s", FormatTable, FormatYAML, cfg.Output.Format)
	}
	return nil
}
