package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/clinicdash/config"
	"github.com/spektr-org/clinicdash/logging"
	"github.com/spektr-org/clinicdash/store"
)

// ============================================================================
// CLINICDASH CLI: Pre-registration dashboard for one CSV
// ============================================================================

const version = "0.3.0"

// Exit codes.
const (
	exitError          = 1
	exitSourceNotFound = 2
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, store.ErrSourceNotFound) {
		return exitSourceNotFound
	}
	return exitError
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	dataPath   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "clinicdash",
		Short: "Dashboard for clinic pre-registration records",
		Long: `clinicdash loads one CSV of clinic pre-registrations and summarizes it:
KPI cards, category and daily counts, an age histogram, descriptive
statistics and a correlation heatmap, for any date range and category filter.

Examples:
  clinicdash serve --data veri.csv --addr :8050
  clinicdash summarize --data veri.csv --select Kaynak:Instagram --format text
  clinicdash export --data veri.csv --start 2024-01-01 --end 2024-01-31 --out ocak.csv
  clinicdash discover --data veri.csv --format pretty`,
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&g.dataPath, "data", "", "Path to CSV data file (overrides config)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(g),
		newSummarizeCmd(g),
		newExportCmd(g),
		newDiscoverCmd(g),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clinicdash %s\n", version)
		},
	}
}

// ============================================================================
// SHARED SETUP
// ============================================================================

// loadConfig reads --config and applies the global flag overrides.
func (g *globalFlags) loadConfig() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if g.dataPath != "" {
		cfg.Data.Path = g.dataPath
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	return logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Service: cfg.Telemetry.ServiceName(),
		Output:  stderr,
	})
}

// loadStore loads the configured CSV and logs unresolved role columns.
func loadStore(cfg config.Config, logger *slog.Logger) (*store.Store, error) {
	st, err := store.Load(cfg.Data.Path, cfg.Roles())
	if err != nil {
		logger.Error("failed to load data", "path", cfg.Data.Path, "error", err)
		return nil, err
	}
	for _, m := range st.Schema().Missing {
		logger.Warn("role column missing; dependent charts stay empty",
			"role", m.Role,
			"column", m.Column)
	}
	logger.Info("data loaded",
		"path", cfg.Data.Path,
		"rows", st.Len(),
		"columns", len(st.Schema().Columns))
	return st, nil
}
