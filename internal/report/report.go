package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/dbtflow/dbtflow/internal/dbt"
	"github.com/dbtflow/dbtflow/internal/verify"
)

// Meta is the frontmatter of a persisted run report.
type Meta struct {
	RunID          string    `yaml:"run_id"`
	Pipeline       string    `yaml:"pipeline"`
	Status         string    `yaml:"status"`
	StartedAt      time.Time `yaml:"started_at"`
	FinishedAt     time.Time `yaml:"finished_at"`
	TablesCreated  int       `yaml:"tables_created"`
	CommandsFailed int       `yaml:"commands_failed"`
}

// Store persists run reports as markdown files with YAML frontmatter,
// one file per run, named by start time and run ID.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes a report and returns its path.
func (s *Store) Save(meta Meta, body string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	fm, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal report metadata: %w", err)
	}

	id := meta.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	name := fmt.Sprintf("%s-%s.md", meta.StartedAt.UTC().Format("20060102T150405"), id)
	path := filepath.Join(s.dir, name)

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	b.WriteString(body)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// List returns the metadata of all persisted reports, newest first.
// Files that fail to parse are skipped.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reports directory: %w", err)
	}

	var metas []Meta
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		f, err := os.Open(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var m Meta
		_, err = frontmatter.Parse(f, &m)
		f.Close()
		if err != nil {
			continue
		}
		metas = append(metas, m)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].StartedAt.After(metas[j].StartedAt)
	})
	return metas, nil
}

// RenderBody formats command outcomes and the verification report as the
// report's markdown body.
func RenderBody(results dbt.Results, rep *verify.Report) string {
	var b strings.Builder

	b.WriteString("## Commands\n\n")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(&b, "- `dbt %s` (%s): %s\n", r.Command, r.Duration.Round(time.Millisecond), status)
	}

	if rep != nil {
		fmt.Fprintf(&b, "\n## Verification\n\nTables created: %d\n\n", rep.TablesCreated)
		for _, t := range rep.TableList {
			fmt.Fprintf(&b, "- %s: %s\n", t, rep.TableCounts[t])
		}
	}
	return b.String()
}
