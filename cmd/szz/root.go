package main

import (
	"log/slog"
	"os"

	"github.com/agusespa/szz/internal/logging"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "szz",
	Short: "Find the commits that introduced the bugs fixed by other commits",
	Long: `szz traces the lines changed by bug-fixing commits back through the
history of their repositories and reports the commits that most likely
introduced each bug.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides log_level from the config")
}

// newLogger builds the stderr logger. The flag wins over the configured
// level.
func newLogger(configured string) *slog.Logger {
	level := configured
	if logLevel != "" {
		level = logLevel
	}
	return logging.NewLogger(os.Stderr, logging.LevelFromString(level))
}
