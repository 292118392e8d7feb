// Package config loads the permkit CLI/embedder's configuration: where
// the model and policy files live, and how the enforcer should be
// wired (auto role-link rebuild, metrics, tracing).
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the root configuration for the permkit CLI and any embedder
// that wants file-backed, environment-overridable setup instead of
// wiring an Enforcer by hand.
type Config struct {
	Model  ModelConfig  `mapstructure:"model" validate:"required"`
	Server ServerConfig `mapstructure:"server"`
}

// ModelConfig names the PERM model and policy files on disk.
type ModelConfig struct {
	ModelPath          string `mapstructure:"model_path" validate:"required,filepath"`
	PolicyPath         string `mapstructure:"policy_path" validate:"required,filepath"`
	AutoBuildRoleLinks bool   `mapstructure:"auto_build_role_links"`
	WatchForChanges    bool   `mapstructure:"watch_for_changes"`
}

// ServerConfig controls optional ambient instrumentation.
type ServerConfig struct {
	MetricsAddr string `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	TraceOutput string `mapstructure:"trace_output" validate:"omitempty,oneof=stdout none"`
}

// InitViper wires Viper to read the config file (./permkit.yaml when
// configFile is empty) and PERMKIT_-prefixed environment variables.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("permkit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("PERMKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("model.auto_build_role_links", true)
	viper.SetDefault("server.trace_output", "none")
}

// Load reads the Viper-configured source into a Config and validates it.
func Load() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs struct-tag validation over cfg.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var ve validator.ValidationErrors
	if !asValidationErrors(err, &ve) {
		return err
	}
	var b strings.Builder
	b.WriteString("invalid configuration: ")
	for i, fe := range ve {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s failed %q validation", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("%s", b.String())
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = ve
	return true
}
