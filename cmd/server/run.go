package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sqlcourse/internal/config"
	"github.com/JonMunkholm/sqlcourse/internal/core"
	"github.com/JonMunkholm/sqlcourse/internal/engine/sqlite"
	"github.com/JonMunkholm/sqlcourse/internal/logging"
)

var (
	runCSV     string
	runQuery   string
	runBackend string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Import one CSV, run one query, print the rows as JSON",
	Example: `  sqlcourse run --csv people.csv --query "SELECT COUNT(*) FROM data"
  sqlcourse run --csv people.csv --query "SELECT * FROM data" --backend postgres`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context(), cmd)
	},
}

func init() {
	runCmd.Flags().StringVar(&runCSV, "csv", "", "CSV file to import (required)")
	runCmd.Flags().StringVar(&runQuery, "query", "", "SQL statement to run against table data (required)")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "sqlite or postgres (default from config)")
	_ = runCmd.MarkFlagRequired("csv")
	_ = runCmd.MarkFlagRequired("query")
}

// runOnce imports runCSV into a throwaway dataset, executes runQuery and
// prints the result. Instances and files are removed before returning.
func runOnce(ctx context.Context, cmd *cobra.Command) error {
	if runBackend != "" {
		if err := os.Setenv("BACKEND", runBackend); err != nil {
			return err
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	if cfg.Backend.Kind == sqlite.Name {
		dir, err := os.MkdirTemp("", "sqlcourse-run-")
		if err != nil {
			return fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(dir)
		cfg.SQLite.DataDir = filepath.Join(dir, "databases")
	}

	data, err := os.ReadFile(runCSV)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	backend, closeBackend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("backend cleanup error", "error", err)
		}
	}()

	service, err := newService(cfg, backend)
	if err != nil {
		return err
	}

	summary, err := service.Import(ctx, core.ImportRequest{
		Name: filepath.Base(runCSV),
		CSV:  data,
	})
	if err != nil {
		return errors.New(core.FormatUserError(err))
	}

	result, err := service.Execute(ctx, summary.ID, runQuery)
	if err != nil {
		return errors.New(core.FormatUserError(err))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
