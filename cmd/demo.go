package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbtflow/dbtflow/internal/acquire"
	"github.com/dbtflow/dbtflow/internal/dbt"
	"github.com/dbtflow/dbtflow/internal/paths"
	"github.com/dbtflow/dbtflow/internal/pipeline"
	"github.com/dbtflow/dbtflow/internal/profile"
	"github.com/dbtflow/dbtflow/internal/verify"
)

// defaultDemoZip is the archive carrying the dbt demo project.
const defaultDemoZip = "https://github.com/PrefectHQ/examples/archive/refs/heads/examples-markdown.zip"

var demoZipURL string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the zip-based dbt demo against a local database",
	Long: `Download the dbt demo project from a zip archive (cached after the
first run), generate a profile with a single thread, run the full dbt
lifecycle, and verify the resulting tables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		work := viper.GetString("work_dir")
		projectDir := filepath.Join(paths.ProjectsDir(work), "dbt_demo")
		dbPath := filepath.Join(paths.DataDir(work), "demo.db")

		var (
			results dbt.Results
			rep     *verify.Report
		)
		started := time.Now().UTC()
		runner := dbt.NewRunner(viper.GetString("dbt_bin"), projectDir, projectDir, log)
		acq := acquire.New(log)

		p := pipeline.New("dbt-demo", log).Add(
			pipeline.Retried("acquire-project", func(ctx context.Context) error {
				_, err := acq.Acquire(ctx, acquire.Zip(demoZipURL), projectDir)
				return err
			}),
			pipeline.Once("write-profile", func(ctx context.Context) error {
				if err := os.MkdirAll(paths.DataDir(work), 0o755); err != nil {
					return err
				}
				if err := verify.EnsureDatabase(dbPath); err != nil {
					return err
				}
				_, err := profile.Embedded("demo", viper.GetString("adapter"), dbPath, 1).Write(projectDir)
				return err
			}),
			pipeline.Once("run-dbt", func(ctx context.Context) error {
				results = runner.Invoke(ctx, []string{"deps", "seed", "run", "test"})
				return ctx.Err()
			}),
			pipeline.Once("verify", func(ctx context.Context) error {
				var err error
				rep, err = verify.Verify(ctx, dbPath)
				return err
			}),
		)

		err := p.Run(cmd.Context())
		saveRunReport(p.Name, p.RunID, started, err, results, rep)
		if err != nil {
			return err
		}
		printVerification(rep)
		log.Infow("demo finished", "database", dbPath)
		return nil
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoZipURL, "repo-zip", defaultDemoZip, "Zip archive URL of the demo project")
	rootCmd.AddCommand(demoCmd)
}
