package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration from file. Environment variables prefixed with
// ESIX_ override file values (ESIX_E621_API_KEY, ESIX_IDENTITY_CREATOR, ...).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".esix"))
		}
		v.AddConfigPath("/etc/esix/")
	}

	v.SetEnvPrefix("ESIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// No file is fine, env and defaults may be enough.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("e621.base_url", "https://e621.net")
	// Empty defaults keep these keys visible to AutomaticEnv.
	v.SetDefault("e621.username", "")
	v.SetDefault("e621.api_key", "")

	v.SetDefault("identity.project", "esix")
	v.SetDefault("identity.version", "dev")
	v.SetDefault("identity.creator", "")

	v.SetDefault("download.directory", ".")
	v.SetDefault("download.concurrency", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.E621.BaseURL == "" {
		return fmt.Errorf("e621.base_url is required")
	}

	if cfg.Identity.Creator == "" {
		return fmt.Errorf("identity.creator is required, e621 rejects anonymous user agents")
	}

	if cfg.E621.Username != "" && cfg.E621.APIKey == "" {
		return fmt.Errorf("e621.api_key is required when e621.username is set")
	}

	if cfg.Download.Concurrency < 1 || cfg.Download.Concurrency > 16 {
		return fmt.Errorf("download.concurrency must be between 1 and 16")
	}

	return nil
}
