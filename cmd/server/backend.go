package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/sqlcourse/internal/config"
	"github.com/JonMunkholm/sqlcourse/internal/core"
	"github.com/JonMunkholm/sqlcourse/internal/engine/postgres"
	"github.com/JonMunkholm/sqlcourse/internal/engine/sqlite"
	"github.com/JonMunkholm/sqlcourse/internal/launcher"
)

// closeFunc releases backend resources at exit.
type closeFunc func(ctx context.Context) error

// newBackend builds the configured dataset engine.
func newBackend(cfg *config.Config) (core.Backend, closeFunc, error) {
	switch cfg.Backend.Kind {
	case sqlite.Name:
		b := sqlite.New(sqlite.Config{
			DataDir:         cfg.SQLite.DataDir,
			ReadOnlyQueries: cfg.SQLite.ReadOnlyQueries,
		})
		return b, func(context.Context) error { return nil }, nil

	case postgres.Name:
		docker := launcher.NewDocker(cfg.Postgres.Image, slog.Default().With("component", "launcher"))
		b := postgres.New(postgres.Config{
			Host:      cfg.Postgres.Host,
			PortBase:  cfg.Postgres.PortBase,
			PortSlots: cfg.Postgres.PortSlots,
			Database:  cfg.Postgres.Database,
			User:      cfg.Postgres.User,
			Password:  cfg.Postgres.Password,
		}, docker)
		return b, docker.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend.Kind)
	}
}

// newService wires the backend, registry and limits from configuration.
func newService(cfg *config.Config, backend core.Backend) (*core.Service, error) {
	return core.NewService(backend, core.NewRegistry(), core.Options{
		Waiter: core.Waiter{
			FirstDelay:     cfg.Waiter.FirstDelay,
			Interval:       cfg.Waiter.Interval,
			MaxAttempts:    cfg.Waiter.MaxAttempts,
			AttemptTimeout: cfg.Waiter.AttemptTimeout,
		},
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		ImportTimeout: cfg.Import.Timeout,
	})
}
