// Package sqlite implements the embedded dataset engine: one SQLite file per
// dataset, opened in-process with the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/sqlcourse/internal/core"
)

// Name identifies this backend in configuration and dataset metadata.
const Name = "sqlite"

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Config configures the embedded backend.
type Config struct {
	DataDir string // Directory holding dataset_<id>.db files

	// ReadOnlyQueries opens query connections with mode=ro so caller
	// statements cannot modify a dataset.
	ReadOnlyQueries bool
}

// Backend hosts each dataset in its own database file.
type Backend struct {
	dataDir  string
	readOnly bool
}

var _ core.Backend = (*Backend)(nil)

// New creates a Backend storing files under cfg.DataDir.
func New(cfg Config) *Backend {
	dir := cfg.DataDir
	if dir == "" {
		dir = "databases"
	}
	return &Backend{dataDir: dir, readOnly: cfg.ReadOnlyQueries}
}

// Name returns "sqlite".
func (b *Backend) Name() string { return Name }

// Path returns the database file for a dataset.
func (b *Backend) Path(id string) string {
	return filepath.Join(b.dataDir, "dataset_"+id+".db")
}

// Provision ensures the data directory exists and returns the file path as
// the descriptor's database. No process is started.
func (b *Backend) Provision(_ context.Context, id string) (core.ConnectionDescriptor, error) {
	if strings.ContainsAny(id, `/\`) || id == "" || id == "." || id == ".." {
		return core.ConnectionDescriptor{}, core.ProvisioningError("provision",
			fmt.Errorf("invalid dataset id %q", id))
	}
	if err := os.MkdirAll(b.dataDir, 0o755); err != nil {
		return core.ConnectionDescriptor{}, core.ProvisioningError("provision",
			fmt.Errorf("create data dir: %w", err))
	}
	return core.ConnectionDescriptor{Database: b.Path(id)}, nil
}

func open(conn core.ConnectionDescriptor, readOnly bool) (*sql.DB, error) {
	dsn := conn.Database
	if readOnly {
		dsn = "file:" + filepath.ToSlash(conn.Database) + "?mode=ro"
	}
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conn.Database, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Ping opens the file, verifies the connection, and closes it.
func (b *Backend) Ping(ctx context.Context, conn core.ConnectionDescriptor) error {
	db, err := open(conn, false)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}

// Execute runs sql on a new connection and closes it on every path.
func (b *Backend) Execute(ctx context.Context, conn core.ConnectionDescriptor, query string) (*core.QueryResult, error) {
	db, err := open(conn, b.readOnly)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	c, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	rows, err := c.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	// Statements without a result set report their changes on the same connection.
	if len(result.Columns) == 0 {
		if err := c.QueryRowContext(ctx, "SELECT changes()").Scan(&result.RowsAffected); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func scanRows(rows *sql.Rows) (*core.QueryResult, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &core.QueryResult{
		Columns: columns,
		Rows:    make([]core.Row, 0),
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(core.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
