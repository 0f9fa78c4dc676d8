package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dbtflow/dbtflow/internal/paths"
	"github.com/dbtflow/dbtflow/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted run reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		metas, err := report.NewStore(paths.DefaultReportsDir()).List()
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			pterm.Println("No runs recorded.")
			return nil
		}

		rows := pterm.TableData{{"Started", "Pipeline", "Status", "Tables", "Failed commands", "Run ID"}}
		for _, m := range metas {
			rows = append(rows, []string{
				m.StartedAt.Format("2006-01-02 15:04:05"),
				m.Pipeline,
				m.Status,
				fmt.Sprintf("%d", m.TablesCreated),
				fmt.Sprintf("%d", m.CommandsFailed),
				m.RunID,
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}
