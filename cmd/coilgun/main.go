package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool

	logger = slog.New(slog.DiscardHandler)
)

// main registers every command and exits with status 1 when the command
// fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "coilgun",
		Short:         "evolve and simulate capacitor-driven coilguns",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel, logJSON)
			if err != nil {
				return err
			}
			logger = l
			slog.SetDefault(l)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "directory of saved simulation runs (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	rootCmd.AddCommand(
		newEvolveCmd(),
		newSimulateCmd(),
		newRunsCmd(),
		newPlotCmd(),
		newExportCmd(),
		newInductanceCmd(),
		newFieldCmd(),
		newCoilCmd(),
		newPhaseCmd(),
		newBatchCmd(),
		newSweepCmd(),
		newToleranceCmd(),
		newGridCmd(),
		newHistoryCmd(),
		newPresetsCmd(),
		newTemplateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(level string, json bool) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %s", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}
