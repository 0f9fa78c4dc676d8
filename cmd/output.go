package cmd

import (
	"time"

	"github.com/pterm/pterm"

	"github.com/dbtflow/dbtflow/internal/dbt"
	"github.com/dbtflow/dbtflow/internal/paths"
	"github.com/dbtflow/dbtflow/internal/report"
	"github.com/dbtflow/dbtflow/internal/verify"
)

// printVerification renders the verification report as a terminal table.
func printVerification(rep *verify.Report) {
	pterm.DefaultSection.Printfln("Verification: %d tables", rep.TablesCreated)
	if rep.TablesCreated == 0 {
		return
	}
	rows := pterm.TableData{{"Table", "Rows"}}
	for _, t := range rep.TableList {
		rows = append(rows, []string{t, rep.TableCounts[t].String()})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// saveRunReport persists the run outcome to the state directory. Report
// persistence never fails the run; problems are logged and swallowed.
func saveRunReport(pipelineName, runID string, started time.Time, runErr error, results dbt.Results, rep *verify.Report) {
	status := "succeeded"
	if runErr != nil {
		status = "failed"
	}
	meta := report.Meta{
		RunID:          runID,
		Pipeline:       pipelineName,
		Status:         status,
		StartedAt:      started,
		FinishedAt:     time.Now().UTC(),
		CommandsFailed: results.Failed(),
	}
	if rep != nil {
		meta.TablesCreated = rep.TablesCreated
	}

	path, err := report.NewStore(paths.DefaultReportsDir()).Save(meta, report.RenderBody(results, rep))
	if err != nil {
		log.Warnw("failed to persist run report", "error", err)
		return
	}
	log.Infow("run report saved", "path", path)
}
