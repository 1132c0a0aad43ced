package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibkit/pica/internal/config"
)

var (
	configFile  string
	dbURL       string
	logLevel    string
	logFormat   string
	skipInvalid bool
	readLimit   int
)

var rootCmd = &cobra.Command{
	Use:   "pica",
	Short: "pica processes PICA+ bibliographic records",
	Long: `pica filters, selects, counts and lints PICA+ records in normalized
line format, optionally persisting results to a SQLite or PostgreSQL
store.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json, text)")
	rootCmd.PersistentFlags().BoolVar(&skipInvalid, "skip-invalid", false, "skip records that fail the grammar instead of aborting")
	rootCmd.PersistentFlags().IntVar(&readLimit, "limit", 0, "stop after this many parsed records (0 = unlimited)")
}

func Execute() error {
	return rootCmd.Execute()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", logLevel)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch logFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q (expected json or text)", logFormat)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig merges the config file with the persistent flags. Flags
// that were set on the command line win over file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("skip-invalid") {
		cfg.Reader.SkipInvalid = skipInvalid
	}
	if cmd.Flags().Changed("limit") {
		cfg.Reader.Limit = readLimit
	}
	if cmd.Flags().Changed("db-url") {
		cfg.Store.DatabaseURL = dbURL
	}
	return cfg, nil
}
