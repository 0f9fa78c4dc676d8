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

const defaultTuvaRepo = "https://github.com/tuva-health/demo"

var (
	tuvaRepoURL   string
	tuvaTargetDir string
	tuvaDBPath    string
)

var tuvaCmd = &cobra.Command{
	Use:   "tuva",
	Short: "Clone and run the Tuva Health demo against a local database",
	Long: `Clone the Tuva Health demo repository (cached after the first run),
point it at a local database file, run the dbt lifecycle, and verify the
resulting tables. Delete the cloned directory to force a fresh clone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		work := viper.GetString("work_dir")
		projectDir := tuvaTargetDir
		if projectDir == "" {
			projectDir = filepath.Join(paths.ProjectsDir(work), "tuva_demo")
		}
		dbPath := tuvaDBPath
		if dbPath == "" {
			dbPath = filepath.Join(paths.DataDir(work), "tuva_demo.db")
		}
		profilesDir := paths.ProfilesDir(work)

		var (
			results dbt.Results
			rep     *verify.Report
		)
		started := time.Now().UTC()
		runner := dbt.NewRunner(viper.GetString("dbt_bin"), projectDir, profilesDir, log)
		acq := acquire.New(log)

		p := pipeline.New("tuva-demo", log).Add(
			pipeline.Retried("clone-repository", func(ctx context.Context) error {
				_, err := acq.Acquire(ctx, acquire.Repo(tuvaRepoURL), projectDir)
				return err
			}),
			pipeline.Once("write-profile", func(ctx context.Context) error {
				if err := os.MkdirAll(paths.DataDir(work), 0o755); err != nil {
					return err
				}
				if err := verify.EnsureDatabase(dbPath); err != nil {
					return err
				}
				prof := profile.Embedded("tuva_demo", viper.GetString("adapter"), dbPath, 4,
					viper.GetStringSlice("extensions")...)
				_, err := prof.Write(profilesDir)
				return err
			}),
			pipeline.Once("update-project-config", func(ctx context.Context) error {
				return profile.SetProjectProfile(projectDir, "tuva_demo")
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
		log.Infow("tuva demo finished", "database", dbPath)
		return nil
	},
}

func init() {
	tuvaCmd.Flags().StringVar(&tuvaRepoURL, "repo", defaultTuvaRepo, "Git URL of the Tuva demo repository")
	tuvaCmd.Flags().StringVar(&tuvaTargetDir, "target-dir", "", "Directory to clone the repository into")
	tuvaCmd.Flags().StringVar(&tuvaDBPath, "db-path", "", "Path of the target database file")
	rootCmd.AddCommand(tuvaCmd)
}
