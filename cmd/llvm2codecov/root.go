package main

import (
	"context"
	"log/slog"

	"github.com/praetorian-inc/llvm2codecov/pkg/config"
	"github.com/praetorian-inc/llvm2codecov/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "llvm2codecov",
	Short: "Convert llvm-cov exports to Codecov line coverage",
	Long: `llvm2codecov reads the JSON written by "llvm-cov export" and turns its
region coverage into the per-line JSON format Codecov accepts.

Region boundaries are trimmed to the code they cover using the source files,
so trailing blank lines and closing whitespace are not reported as covered.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultFile+" when present)")

	// Add subcommands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newLogger logs to the command's stderr at the level picked by -v / -q.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := logging.LevelInfo
	switch {
	case quiet:
		level = logging.LevelError
	case verbose:
		level = logging.LevelDebug
	}
	return logging.New(cmd.ErrOrStderr(), level, logging.FormatText)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func loadConfig() (*config.Config, error) {
	return config.LoadDefault(configPath)
}
