// Package config loads runtime configuration from a YAML file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every knob the binaries need.
type Config struct {
	// ListenAddr is the HTTP server bind address.
	ListenAddr string `mapstructure:"listen_addr"`

	// StoreBackend selects persistence: "sqlite" or "memory".
	StoreBackend string `mapstructure:"store_backend"`
	// DBPath is the SQLite database file.
	DBPath string `mapstructure:"db_path"`

	// RulesFile optionally overrides the built-in categorizer rules.
	RulesFile string `mapstructure:"rules_file"`

	// AnthropicAPIKey enables the AI categorization refinement when set.
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	AnthropicModel  string `mapstructure:"anthropic_model"`

	// DefaultSource is the source/account ID the CLI ingests into when
	// none is given.
	DefaultSource string `mapstructure:"default_source"`
}

// Build reads the optional config file, binds SPENDLENS_* environment
// variables and overlays any flags the caller has registered.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("store_backend", "sqlite")
	v.SetDefault("db_path", "./data/spendlens.db")
	v.SetDefault("anthropic_model", "")
	v.SetDefault("default_source", "default")

	v.SetEnvPrefix("SPENDLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the binaries cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("invalid store_backend %q: must be sqlite or memory", c.StoreBackend)
	}
	if c.StoreBackend == "sqlite" && c.DBPath == "" {
		return fmt.Errorf("db_path required for sqlite backend")
	}
	return nil
}
