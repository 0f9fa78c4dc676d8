package verify

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedDatabase(t *testing.T, statements ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestVerifyCountsRows(t *testing.T) {
	path := seedDatabase(t,
		`CREATE TABLE patients (id INTEGER PRIMARY KEY, name TEXT)`,
		`INSERT INTO patients (name) VALUES ('a'), ('b'), ('c')`,
		`CREATE TABLE claims (id INTEGER PRIMARY KEY)`,
	)

	rep, err := Verify(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, rep.TablesCreated)
	require.Equal(t, []string{"claims", "patients"}, rep.TableList)
	require.Equal(t, int64(3), rep.TableCounts["patients"].Rows)
	require.Equal(t, int64(0), rep.TableCounts["claims"].Rows)
	require.Equal(t, "3", rep.TableCounts["patients"].String())
}

func TestVerifyEmptyDatabase(t *testing.T) {
	path := seedDatabase(t)

	rep, err := Verify(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 0, rep.TablesCreated)
	require.Empty(t, rep.TableList)
	require.Empty(t, rep.TableCounts)
}

func TestVerifyRecordsPerTableErrors(t *testing.T) {
	// A view over a missing table lists fine but fails to count
	path := seedDatabase(t,
		`CREATE TABLE ok (id INTEGER)`,
		`INSERT INTO ok VALUES (1)`,
		`CREATE VIEW broken AS SELECT * FROM missing_table`,
	)

	rep, err := Verify(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, rep.TablesCreated)
	require.Contains(t, rep.TableList, "broken")
	require.NotEmpty(t, rep.TableCounts["broken"].Err)
	require.Contains(t, rep.TableCounts["broken"].String(), "Error:")
	require.Equal(t, int64(1), rep.TableCounts["ok"].Rows)
}

func TestEnsureDatabaseCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	require.NoError(t, EnsureDatabase(path))
	require.FileExists(t, path)

	// Parent must exist; EnsureDatabase only creates the file
	require.Error(t, EnsureDatabase(filepath.Join(t.TempDir(), "missing", "fresh.db")))
}
