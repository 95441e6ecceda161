package config

// Config represents the complete configuration structure
type Config struct {
	E621     E621Config     `mapstructure:"e621"`
	Identity IdentityConfig `mapstructure:"identity"`
	Download DownloadConfig `mapstructure:"download"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// E621Config holds the service endpoint and credentials
type E621Config struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	APIKey   string `mapstructure:"api_key"`
}

// IdentityConfig names the consumer in the outbound User-Agent. The service
// requires all three fields and bans anonymous user agents.
type IdentityConfig struct {
	Project string `mapstructure:"project"`
	Version string `mapstructure:"version"`
	Creator string `mapstructure:"creator"`
}

// DownloadConfig contains settings for the download commands
type DownloadConfig struct {
	Directory   string `mapstructure:"directory"`
	Concurrency int    `mapstructure:"concurrency"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
