package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/esix-go/esix/config"
	"github.com/esix-go/esix/e621"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *e621.Client

	appVersion = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "esix",
	Short: "Search and download from e621",
	Long: `esix is a small CLI around the esix client library. It can search posts
with optional client-side filter expressions and download single posts or
entire pools in their canonical order.`,
	PersistentPreRunE: initializeApp,
}

// SetVersion records the build version injected by the linker.
func SetVersion(version, buildTime string) {
	appVersion = version
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(downloadCmd)
}

// initializeApp loads configuration and creates the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	version := cfg.Identity.Version
	if version == "dev" && appVersion != "" {
		version = appVersion
	}

	client, err = e621.NewClient(
		cfg.Identity.Project,
		version,
		cfg.Identity.Creator,
		logger,
		e621.WithBaseURL(cfg.E621.BaseURL),
	)
	if err != nil {
		return fmt.Errorf("failed to create e621 client: %w", err)
	}

	if cfg.E621.Username != "" {
		client.Login(cfg.E621.Username, cfg.E621.APIKey)
		logger.Debug().Str("username", cfg.E621.Username).Msg("Using authenticated requests")
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}
