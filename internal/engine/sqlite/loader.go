package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/sqlcourse/internal/core"
)

// columnType maps an inferred type to its SQLite declaration. SQLite
// integers are always 64-bit, so BIGINT is stored as INTEGER.
func columnType(t core.ColumnType) string {
	if t == core.TypeBigint {
		return string(core.TypeInteger)
	}
	return string(t)
}

func createTableSQL(columns []core.ColumnDescriptor) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = core.QuoteIdentifier(col.Name) + " " + columnType(col.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", core.QuoteIdentifier(core.DataTable), strings.Join(defs, ", "))
}

func insertSQL(columns []core.ColumnDescriptor) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		core.QuoteIdentifier(core.DataTable),
		strings.Join(core.QuoteColumns(columns), ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))
}

// Load recreates the data table and inserts every record in one
// transaction. On failure nothing is committed and 0 is returned.
func (b *Backend) Load(ctx context.Context, conn core.ConnectionDescriptor, columns []core.ColumnDescriptor, table *core.Table) (int64, error) {
	db, err := open(conn, false)
	if err != nil {
		return 0, core.LoadError("open", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, core.LoadError("begin", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+core.QuoteIdentifier(core.DataTable)); err != nil {
		return 0, core.LoadError("drop table", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(columns)); err != nil {
		return 0, core.LoadError("create table", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(columns))
	if err != nil {
		return 0, core.LoadError("prepare insert", err)
	}
	defer stmt.Close()

	for i, rec := range table.Records {
		values, err := core.CoerceRecord(rec, columns, i+1)
		if err != nil {
			return 0, core.LoadError("coerce", err)
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return 0, core.LoadError("insert", fmt.Errorf("row %d: %w", i+1, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, core.LoadError("commit", err)
	}
	return int64(len(table.Records)), nil
}
