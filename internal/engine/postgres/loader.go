package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/sqlcourse/internal/core"
)

// DBTX is the subset of *pgx.Conn the loader needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// createTableSQL returns the DDL for the data table. Types are used verbatim.
func createTableSQL(columns []core.ColumnDescriptor) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = pgx.Identifier{col.Name}.Sanitize() + " " + string(col.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)",
		pgx.Identifier{core.DataTable}.Sanitize(), strings.Join(defs, ", "))
}

func insertSQL(columns []core.ColumnDescriptor) string {
	names := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, col := range columns {
		names[i] = pgx.Identifier{col.Name}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{core.DataTable}.Sanitize(),
		strings.Join(names, ", "),
		strings.Join(params, ", "))
}

// loadTable drops and recreates the data table, then inserts each record in
// order. It returns the number of rows inserted so far, also on failure.
func loadTable(ctx context.Context, db DBTX, columns []core.ColumnDescriptor, table *core.Table) (int64, error) {
	drop := "DROP TABLE IF EXISTS " + pgx.Identifier{core.DataTable}.Sanitize()
	if _, err := db.Exec(ctx, drop); err != nil {
		return 0, core.LoadError("drop table", err)
	}
	if _, err := db.Exec(ctx, createTableSQL(columns)); err != nil {
		return 0, core.LoadError("create table", err)
	}

	insert := insertSQL(columns)
	var inserted int64
	for i, rec := range table.Records {
		values, err := core.CoerceRecord(rec, columns, i+1)
		if err != nil {
			return inserted, core.LoadError("coerce", err)
		}
		if _, err := db.Exec(ctx, insert, values...); err != nil {
			return inserted, core.LoadError("insert", fmt.Errorf("row %d: %w", i+1, err))
		}
		inserted++
	}
	return inserted, nil
}
