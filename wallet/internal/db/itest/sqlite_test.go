//go:build itest && !test_db_postgres

package itest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/btcsuite/coinselect/wallet/internal/db"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// NewSQLiteDB creates a new SQLite database for testing with migrations
// applied. Each test gets its own temporary database file.
func NewSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	dbConn, err := sql.Open("sqlite", db.SQLiteDSN(dbPath))
	require.NoError(t, err, "failed to open sqlite database")

	err = db.ApplySQLiteMigrations(dbConn)
	require.NoError(t, err, "failed to apply migrations")

	t.Cleanup(func() {
		_ = dbConn.Close()
	})

	return dbConn
}

// NewTestStore creates a SQLite selection store and returns it along with
// the underlying database connection.
func NewTestStore(t *testing.T) (db.SelectionStore, *sql.DB) {
	t.Helper()

	dbConn := NewSQLiteDB(t)

	store, err := db.NewSQLiteSelectionStore(dbConn)
	require.NoError(t, err, "failed to create selection store")

	return store, dbConn
}

// reapplyMigrations runs the SQLite migrations a second time.
func reapplyMigrations(dbConn *sql.DB) error {
	return db.ApplySQLiteMigrations(dbConn)
}
