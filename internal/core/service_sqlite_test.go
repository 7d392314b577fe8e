package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/sqlcourse/internal/core"
	"github.com/JonMunkholm/sqlcourse/internal/engine/sqlite"
)

func newSQLiteService(t *testing.T, readOnly bool) *core.Service {
	t.Helper()
	backend := sqlite.New(sqlite.Config{DataDir: t.TempDir(), ReadOnlyQueries: readOnly})
	svc, err := core.NewService(backend, core.NewRegistry(), core.Options{
		Waiter: core.Waiter{FirstDelay: time.Millisecond, Interval: time.Millisecond, MaxAttempts: 3},
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestImportAndQuery_SQLite(t *testing.T) {
	svc := newSQLiteService(t, false)
	ctx := context.Background()

	summary, err := svc.Import(ctx, core.ImportRequest{
		Name: "people.csv",
		CSV:  []byte("ID,Age,Score\n1,30,9.5\n2,,8.0\n"),
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	ds, err := svc.Get(summary.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ds.RowCount != 2 || ds.Backend != sqlite.Name {
		t.Errorf("dataset = %+v", ds)
	}

	result, err := svc.Execute(ctx, summary.ID, "SELECT COUNT(*) AS n FROM data")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := result.Rows[0]["n"]; got != int64(2) {
		t.Errorf("COUNT(*) = %#v, want 2", got)
	}

	result, err = svc.Execute(ctx, summary.ID, "SELECT id, age, score FROM data ORDER BY id")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := result.Rows[1]["age"]; got != nil {
		t.Errorf("empty age = %#v, want NULL", got)
	}
	if got := result.Rows[1]["score"]; got != 8.0 {
		t.Errorf("score = %#v, want 8.0", got)
	}

	_, err = svc.Execute(ctx, summary.ID, "SELECT nope FROM data")
	if !errors.Is(err, core.ErrQuery) {
		t.Errorf("expected ErrQuery, got %v", err)
	}
}

func TestImportLoadFailure_SQLite(t *testing.T) {
	svc := newSQLiteService(t, false)

	// The 21st row lies outside the inference sample and cannot be stored as INTEGER.
	csv := "n\n"
	for i := 0; i < core.SampleSize; i++ {
		csv += "1\n"
	}
	csv += "oops\n"

	_, err := svc.Import(context.Background(), core.ImportRequest{CSV: []byte(csv)})
	if !errors.Is(err, core.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
	if got := svc.List(); len(got) != 0 {
		t.Errorf("failed dataset listed: %+v", got)
	}
}

func TestExecuteWrites_SQLite(t *testing.T) {
	svc := newSQLiteService(t, false)
	ctx := context.Background()

	summary, err := svc.Import(ctx, core.ImportRequest{CSV: []byte("id,name\n1,\n2,bo\n")})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	result, err := svc.Execute(ctx, summary.ID, "UPDATE data SET id = 3 WHERE name = 'bo'")
	if err != nil {
		t.Fatalf("UPDATE failed: %v", err)
	}
	if result.RowsAffected != 1 {
		t.Errorf("UPDATE RowsAffected = %d, want 1", result.RowsAffected)
	}

	if _, err := svc.Execute(ctx, summary.ID, "CREATE TABLE t (x INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}

	result, err = svc.Execute(ctx, summary.ID, "DELETE FROM data")
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	if result.RowsAffected != 2 {
		t.Errorf("DELETE RowsAffected = %d, want 2", result.RowsAffected)
	}
}

func TestExecuteReadOnly_SQLite(t *testing.T) {
	svc := newSQLiteService(t, true)
	ctx := context.Background()

	summary, err := svc.Import(ctx, core.ImportRequest{CSV: []byte("id\n1\n")})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	_, err = svc.Execute(ctx, summary.ID, "DELETE FROM data")
	if !errors.Is(err, core.ErrQuery) {
		t.Fatalf("expected ErrQuery for a write on a read-only connection, got %v", err)
	}

	result, err := svc.Execute(ctx, summary.ID, "SELECT COUNT(*) AS n FROM data")
	if err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}
	if got := result.Rows[0]["n"]; got != int64(1) {
		t.Errorf("COUNT(*) = %#v, want 1", got)
	}
}
