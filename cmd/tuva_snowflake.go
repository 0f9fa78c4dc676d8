package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbtflow/dbtflow/internal/acquire"
	"github.com/dbtflow/dbtflow/internal/connstore"
	"github.com/dbtflow/dbtflow/internal/dbt"
	"github.com/dbtflow/dbtflow/internal/paths"
	"github.com/dbtflow/dbtflow/internal/pipeline"
	"github.com/dbtflow/dbtflow/internal/profile"
	"github.com/dbtflow/dbtflow/internal/warehouse"
)

var (
	tuvaSfConn      string
	tuvaSfRepoURL   string
	tuvaSfTargetDir string
)

var tuvaSnowflakeCmd = &cobra.Command{
	Use:   "tuva-snowflake",
	Short: "Clone and run the Tuva Health demo against Snowflake",
	Long: `Verify the named warehouse connection, clone the Tuva Health demo
repository, generate a Snowflake profile from the stored connection, and run
the dbt transformations against the warehouse.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tuvaSfConn == "" {
			return errors.New("--conn is required")
		}

		store, err := connstore.New(paths.DefaultConnectionsPath())
		if err != nil {
			return err
		}
		conn, err := store.Get(tuvaSfConn)
		if err != nil {
			return err
		}

		work := viper.GetString("work_dir")
		projectDir := tuvaSfTargetDir
		if projectDir == "" {
			projectDir = filepath.Join(paths.ProjectsDir(work), "tuva_snowflake_demo")
		}
		profilesDir := paths.ProfilesDir(work)

		var results dbt.Results
		started := time.Now().UTC()
		runner := dbt.NewRunner(viper.GetString("dbt_bin"), projectDir, profilesDir, log)
		acq := acquire.New(log)

		p := pipeline.New("tuva-snowflake", log).Add(
			pipeline.Retried("check-connection", func(ctx context.Context) error {
				wh, err := warehouse.Open(conn, log)
				if err != nil {
					return err
				}
				defer wh.Close()
				_, err = wh.Check(ctx)
				return err
			}),
			pipeline.Retried("clone-repository", func(ctx context.Context) error {
				_, err := acq.Acquire(ctx, acquire.Repo(tuvaSfRepoURL), projectDir)
				return err
			}),
			pipeline.Once("write-profile", func(ctx context.Context) error {
				prof := profile.Snowflake("tuva_snowflake", conn, 4, "tuva")
				_, err := prof.Write(profilesDir)
				return err
			}),
			pipeline.Once("update-project-config", func(ctx context.Context) error {
				return profile.SetProjectProfile(projectDir, "tuva_snowflake")
			}),
			pipeline.Once("run-dbt", func(ctx context.Context) error {
				results = runner.Invoke(ctx, []string{"run", "test"})
				return ctx.Err()
			}),
		)

		err = p.Run(cmd.Context())
		saveRunReport(p.Name, p.RunID, started, err, results, nil)
		if err != nil {
			return err
		}
		log.Infow("tuva snowflake demo finished", "project", projectDir)
		return nil
	},
}

func init() {
	tuvaSnowflakeCmd.Flags().StringVar(&tuvaSfConn, "conn", "", "Name of the stored warehouse connection")
	tuvaSnowflakeCmd.Flags().StringVar(&tuvaSfRepoURL, "repo", defaultTuvaRepo, "Git URL of the Tuva demo repository")
	tuvaSnowflakeCmd.Flags().StringVar(&tuvaSfTargetDir, "target-dir", "", "Directory to clone the repository into")
	rootCmd.AddCommand(tuvaSnowflakeCmd)
}
