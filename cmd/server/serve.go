package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sqlcourse/internal/config"
	"github.com/JonMunkholm/sqlcourse/internal/core"
	"github.com/JonMunkholm/sqlcourse/internal/logging"
	"github.com/JonMunkholm/sqlcourse/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"backend", cfg.Backend.Kind,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_disabled", cfg.Rate.Disabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	backend, closeBackend, err := newBackend(cfg)
	if err != nil {
		slog.Error("failed to create backend", "error", err)
		return err
	}

	service, err := newService(cfg, backend)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		return err
	}

	server := web.NewServer(service, cfg)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	gracefulShutdown(shutdownCtx, server, service, closeBackend)
	return nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

type importDrainer interface {
	ImportStatus() core.ImportLimiterStatus
	WaitForImports(ctx context.Context) error
}

// gracefulShutdown stops the HTTP server, then drains running imports, then
// releases the backend. Shutdown comes first so no new import is accepted
// while draining; it also waits for in-flight handlers until ctx expires.
func gracefulShutdown(ctx context.Context, server shutdowner, imports importDrainer, closeBackend closeFunc) {
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	// Imports detach from their request, so drain any still running
	if status := imports.ImportStatus(); status.Active > 0 {
		slog.Info("waiting for imports to complete", "active", status.Active)
		if err := imports.WaitForImports(ctx); err != nil {
			slog.Warn("imports did not complete in time", "error", err)
		} else {
			slog.Info("all imports completed")
		}
	}

	if err := closeBackend(ctx); err != nil {
		slog.Error("backend cleanup error", "error", err)
	}
}
