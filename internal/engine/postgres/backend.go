package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/sqlcourse/internal/core"
)

// Name identifies this backend in configuration and dataset metadata.
const Name = "postgres"

// Config holds the settings shared by every dataset instance.
type Config struct {
	Host      string // Host the instances are reached on
	PortBase  int
	PortSlots int
	Database  string
	User      string
	Password  string
}

// Backend hosts each dataset in its own PostgreSQL instance.
type Backend struct {
	*Provisioner
}

var _ core.Backend = (*Backend)(nil)

// New creates a Backend that starts instances with launcher.
func New(cfg Config, launcher Launcher) *Backend {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	return &Backend{
		Provisioner: &Provisioner{
			launcher: launcher,
			ports:    NewPortAllocator(cfg.PortBase, cfg.PortSlots),
			host:     host,
			database: cfg.Database,
			user:     cfg.User,
			password: cfg.Password,
		},
	}
}

// Name returns "postgres".
func (b *Backend) Name() string { return Name }

// Ports exposes the reservation table.
func (b *Backend) Ports() *PortAllocator { return b.ports }

// ConnString builds a pgx connection URL for conn.
func ConnString(conn core.ConnectionDescriptor) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conn.User, conn.Password),
		Host:     net.JoinHostPort(conn.Host, strconv.Itoa(conn.Port)),
		Path:     "/" + conn.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func connect(ctx context.Context, conn core.ConnectionDescriptor) (*pgx.Conn, error) {
	c, err := pgx.Connect(ctx, ConnString(conn))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", conn.String(), err)
	}
	return c, nil
}

// Ping opens one connection, verifies it, and closes it.
func (b *Backend) Ping(ctx context.Context, conn core.ConnectionDescriptor) error {
	c, err := connect(ctx, conn)
	if err != nil {
		return err
	}
	defer c.Close(context.WithoutCancel(ctx))
	return c.Ping(ctx)
}

// Load recreates the data table and inserts rows one statement at a time,
// outside any transaction. Rows inserted before a failure stay in the table.
func (b *Backend) Load(ctx context.Context, conn core.ConnectionDescriptor, columns []core.ColumnDescriptor, table *core.Table) (int64, error) {
	c, err := connect(ctx, conn)
	if err != nil {
		return 0, core.LoadError("connect", err)
	}
	defer c.Close(context.WithoutCancel(ctx))

	return loadTable(ctx, c, columns, table)
}

// Execute runs sql on a new connection. The statement is passed to the
// engine untouched.
func (b *Backend) Execute(ctx context.Context, conn core.ConnectionDescriptor, sql string) (*core.QueryResult, error) {
	c, err := connect(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer c.Close(context.WithoutCancel(ctx))

	return execute(ctx, c, sql)
}

func execute(ctx context.Context, c *pgx.Conn, sql string) (*core.QueryResult, error) {
	rows, err := c.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	result := &core.QueryResult{
		Columns: make([]string, len(fieldDescs)),
		Rows:    make([]core.Row, 0),
	}
	for i, fd := range fieldDescs {
		result.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(core.Row, len(result.Columns))
		for i, col := range result.Columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowsAffected = rows.CommandTag().RowsAffected()
	return result, nil
}
