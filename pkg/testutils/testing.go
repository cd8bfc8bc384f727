// Package testutils contains some common utilities used exclusively
// by the test suite.
package testutils

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// testContext returns a context that is canceled when the test
// finishes, matching the semantics of (*testing.T).Context.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// CreateTestSource creates a writable SQLite database under t.TempDir()
// and returns the open handle along with the file path. The handle is
// closed automatically when the test finishes; the file disappears with
// the temp dir.
func CreateTestSource(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, path
}

// RunSQL executes a statement against a test database.
func RunSQL(t *testing.T, db *sql.DB, stmt string) {
	t.Helper()
	_, err := db.ExecContext(testContext(t), stmt)
	require.NoError(t, err)
}

// PostgresDSN returns a connection string for integration tests that
// need a live PostgreSQL server, or "" when OUTGROW_POSTGRES_DSN is not
// set. Tests using it must skip when it is empty.
func PostgresDSN() string {
	return os.Getenv("OUTGROW_POSTGRES_DSN")
}
