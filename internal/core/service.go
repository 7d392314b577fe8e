package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sqlcourse/internal/logging"
)

// DefaultImportTimeout bounds a whole import pipeline.
const DefaultImportTimeout = 10 * time.Minute

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Waiter        Waiter
	MaxConcurrent int
	MaxWait       time.Duration
	ImportTimeout time.Duration

	// NewID generates dataset identifiers (default: random UUID).
	NewID func() string
	// Now returns the creation timestamp (default: time.Now).
	Now func() time.Time
}

// Service runs the import pipeline and dataset queries against one backend.
type Service struct {
	backend  Backend
	registry *Registry
	waiter   Waiter
	limiter  *ImportLimiter
	timeout  time.Duration
	newID    func() string
	now      func() time.Time
}

// NewService creates a Service. backend and registry are required.
func NewService(backend Backend, registry *Registry, opts Options) (*Service, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if registry == nil {
		return nil, errors.New("registry is required")
	}

	waiter := opts.Waiter
	if waiter.MaxAttempts <= 0 {
		waiter = DefaultWaiter()
	}
	timeout := opts.ImportTimeout
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		backend:  backend,
		registry: registry,
		waiter:   waiter,
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		timeout:  timeout,
		newID:    newID,
		now:      now,
	}, nil
}

// BackendName returns the name of the configured backend.
func (s *Service) BackendName() string {
	return s.backend.Name()
}

// Import runs the full pipeline for one CSV: parse, infer, provision, wait,
// load, register. The call returns only when the dataset is registered or a
// stage has failed; a failed dataset is never registered. Once a slot is
// acquired the pipeline ignores caller cancellation and is bounded only by
// the import timeout.
func (s *Service) Import(ctx context.Context, req ImportRequest) (DatasetSummary, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return DatasetSummary{}, err
	}
	defer s.limiter.Release()

	pipeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := s.now()

	table, err := ParseCSV(bytes.NewReader(req.CSV))
	if err != nil {
		logging.FromContext(ctx).Warn("import rejected", "name", req.Name, "error", err)
		return DatasetSummary{}, err
	}
	columns := InferSchema(table)

	ds := Dataset{
		ID:          s.newID(),
		Name:        req.Name,
		Description: req.Description,
		Backend:     s.backend.Name(),
		Columns:     columns,
		Status:      StatusProvisioning,
		CreatedAt:   start,
	}

	logger := logging.WithFields(ctx, "dataset_id", ds.ID, "backend", ds.Backend)
	logger.Info("import started",
		"name", ds.Name,
		"rows", len(table.Records),
		"columns", len(columns),
	)
	for _, col := range columns {
		logger.Debug("column inferred", "column", col.Name, "type", col.Type)
	}
	pipeCtx = logging.NewContext(pipeCtx, logger)

	conn, err := s.backend.Provision(pipeCtx, ds.ID)
	if err != nil {
		return s.fail(logger, &ds, classify(ErrProvisioning, "provision", err))
	}
	ds.Conn = conn
	logger.Info("instance launched", "conn", conn.String(), "wait_budget", s.waiter.Budget())

	err = s.waiter.Wait(pipeCtx, func(ctx context.Context) error {
		return s.backend.Ping(ctx, conn)
	})
	if err != nil {
		return s.fail(logger, &ds, classify(ErrConnectionTimeout, "wait", err))
	}

	inserted, err := s.backend.Load(pipeCtx, conn, columns, table)
	if err != nil {
		logger.Warn("load aborted", "rows_inserted", inserted, "rows_total", len(table.Records))
		return s.fail(logger, &ds, classify(ErrLoad, "load", err))
	}
	ds.RowCount = inserted
	ds.Status = StatusReady

	if err := s.registry.Put(ds); err != nil {
		return s.fail(logger, &ds, fmt.Errorf("register dataset: %w", err))
	}

	logger.Info("import completed",
		"rows", inserted,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	return ds.Summary(), nil
}

// fail marks the in-flight dataset failed and logs the error once.
// The provisioned instance, if any, is left running.
func (s *Service) fail(logger *slog.Logger, ds *Dataset, err error) (DatasetSummary, error) {
	ds.Status = StatusFailed
	logger.Error("import failed", "status", ds.Status, "error", err)
	return DatasetSummary{}, err
}

// List returns all registered datasets in insertion order.
func (s *Service) List() []DatasetSummary {
	datasets := s.registry.List()
	result := make([]DatasetSummary, len(datasets))
	for i, d := range datasets {
		result[i] = d.Summary()
	}
	return result
}

// Get returns a registered dataset.
func (s *Service) Get(id string) (Dataset, error) {
	return s.registry.Get(id)
}

// Execute runs one caller-supplied statement against a dataset's instance on
// a fresh connection. Unknown IDs fail with a NotFoundError before any
// instance is contacted. Engine errors are returned as QueryErrors with the
// engine's message intact.
func (s *Service) Execute(ctx context.Context, id, sql string) (*QueryResult, error) {
	ds, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}

	result, err := s.backend.Execute(ctx, ds.Conn, sql)
	if err != nil {
		logging.WithFields(ctx, "dataset_id", id).Info("query failed", "error", err)
		return nil, classify(ErrQuery, "execute", err)
	}
	return result, nil
}

// ImportStatus returns a snapshot of the import limiter.
func (s *Service) ImportStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
