package verify

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// TableCount is a per-table row count, or the error that prevented one.
type TableCount struct {
	Rows int64
	Err  string
}

func (c TableCount) String() string {
	if c.Err != "" {
		return "Error: " + c.Err
	}
	return fmt.Sprintf("%d", c.Rows)
}

// Report summarizes the state of a target store after a run.
type Report struct {
	TablesCreated int
	TableList     []string
	TableCounts   map[string]TableCount
}

// EnsureDatabase creates the database file at path if it doesn't exist,
// so dbt has a target to connect to on first run.
func EnsureDatabase(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("initialize %s: %w", path, err)
	}
	return nil
}

// Verify opens the store at dbPath, lists its tables and views, and counts
// rows in each. A count that fails is recorded against its table as an
// error string; it never aborts the verification.
func Verify(ctx context.Context, dbPath string) (*Report, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	report := &Report{
		TableList:   []string{},
		TableCounts: make(map[string]TableCount),
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		report.TableList = append(report.TableList, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	report.TablesCreated = len(report.TableList)

	for _, name := range report.TableList {
		var count int64
		err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, name)).Scan(&count)
		if err != nil {
			report.TableCounts[name] = TableCount{Err: err.Error()}
			continue
		}
		report.TableCounts[name] = TableCount{Rows: count}
	}
	return report, nil
}
