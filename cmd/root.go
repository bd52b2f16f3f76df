package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/benn-herrera/loadergen/logger"
)

var (
	verbose bool
	quiet   bool
	specDir string
)

var rootCmd = &cobra.Command{
	Use:   "loadergen",
	Short: "Graphics API loader generator",
	Long:  "loadergen generates function loaders for graphics APIs from YAML specifications, as a one-shot CLI or as an HTTP service.",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().StringVarP(&specDir, "specs", "s", "specs", "Directory holding specification files")
}

func Execute() error {
	return rootCmd.Execute()
}

// flagLevel maps --verbose and --quiet to a log level. ok is false when
// neither flag is set.
func flagLevel() (level slog.Level, ok bool) {
	switch {
	case quiet:
		return slog.LevelError, true
	case verbose:
		return slog.LevelDebug, true
	}
	return slog.LevelInfo, false
}

// cliLogger initializes logging for the one-shot commands.
func cliLogger() *slog.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level, _ = flagLevel()
	cfg.Output = os.Stderr
	return logger.Init(cfg)
}
