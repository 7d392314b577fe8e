package core

import (
	"context"
	"fmt"
	"time"
)

// ColumnType is the inferred storage class of a column.
type ColumnType string

const (
	TypeInteger ColumnType = "INTEGER"
	TypeBigint  ColumnType = "BIGINT"
	TypeReal    ColumnType = "REAL"
	TypeText    ColumnType = "TEXT"
)

// IsInteger reports whether values of this type are loaded with base-10 integer parsing.
func (t ColumnType) IsInteger() bool {
	return t == TypeInteger || t == TypeBigint
}

// ColumnDescriptor is a column's normalized name and inferred type.
type ColumnDescriptor struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Record is one CSV data row keyed by normalized column name.
type Record map[string]string

// Table is a parsed CSV: the normalized header in file order and every data row.
type Table struct {
	Header  []string
	Records []Record
}

// ConnectionDescriptor identifies a provisioned instance.
// For the embedded backend Database holds the file path and Host/Port are empty.
type ConnectionDescriptor struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database"`
	User     string `json:"-"`
	Password string `json:"-"`
}

// String returns the descriptor with credentials masked, safe for logging.
func (c ConnectionDescriptor) String() string {
	if c.Host == "" {
		return c.Database
	}
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}

// DatasetStatus is the lifecycle state of a dataset import.
type DatasetStatus string

const (
	StatusProvisioning DatasetStatus = "provisioning"
	StatusReady        DatasetStatus = "ready"
	StatusFailed       DatasetStatus = "failed"
)

// Dataset is one imported CSV and its provisioned instance.
type Dataset struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Backend     string               `json:"backend"`
	Conn        ConnectionDescriptor `json:"connection"`
	Columns     []ColumnDescriptor   `json:"columns"`
	RowCount    int64                `json:"rowCount"`
	Status      DatasetStatus        `json:"status"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// Summary returns the public listing view of the dataset.
func (d Dataset) Summary() DatasetSummary {
	return DatasetSummary{ID: d.ID, Name: d.Name, Description: d.Description}
}

// DatasetSummary is what import and list operations return.
type DatasetSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ImportRequest is the input to [Service.Import].
type ImportRequest struct {
	Name        string
	Description string
	CSV         []byte
}

// Row is a single result row keyed by column name.
type Row map[string]any

// QueryResult holds the rows produced by one statement.
// Columns preserves the engine's column order, which Row cannot.
type QueryResult struct {
	Columns      []string `json:"columns"`
	Rows         []Row    `json:"rows"`
	RowsAffected int64    `json:"rowsAffected"`
}

// Provisioner starts a fresh instance for a dataset and returns a
// reachable-but-not-yet-ready descriptor. It must not wait for readiness.
type Provisioner interface {
	Provision(ctx context.Context, datasetID string) (ConnectionDescriptor, error)
}

// Pinger makes exactly one connection attempt against an instance.
type Pinger interface {
	Ping(ctx context.Context, conn ConnectionDescriptor) error
}

// Loader recreates the data table and inserts every record.
// It returns the number of rows inserted, which may be non-zero on error for
// backends that do not load transactionally.
type Loader interface {
	Load(ctx context.Context, conn ConnectionDescriptor, columns []ColumnDescriptor, table *Table) (int64, error)
}

// Executor runs one statement on a fresh connection.
type Executor interface {
	Execute(ctx context.Context, conn ConnectionDescriptor, sql string) (*QueryResult, error)
}

// Backend is a database engine capable of hosting datasets.
type Backend interface {
	Name() string
	Provisioner
	Pinger
	Loader
	Executor
}
