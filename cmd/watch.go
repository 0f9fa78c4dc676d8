package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbtflow/dbtflow/internal/dbt"
	"github.com/dbtflow/dbtflow/internal/watcher"
)

var (
	watchDir         string
	watchProfilesDir string
	watchCommands    []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run dbt commands when project files change",
	Long: `Watch the model, seed, macro, test and snapshot directories of an
acquired project and re-run the given dbt commands after each change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchDir == "" {
			return errors.New("--dir is required")
		}
		if _, err := os.Stat(watchDir); err != nil {
			return err
		}
		profilesDir := watchProfilesDir
		if profilesDir == "" {
			profilesDir = watchDir
		}

		runner := dbt.NewRunner(viper.GetString("dbt_bin"), watchDir, profilesDir, log)
		w, err := watcher.New(log)
		if err != nil {
			return err
		}
		defer w.Close()

		return w.Watch(cmd.Context(), watchDir, func(ctx context.Context) error {
			results := runner.Invoke(ctx, watchCommands)
			if n := results.Failed(); n > 0 {
				log.Warnw("commands failed", "failed", n)
			}
			return ctx.Err()
		})
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "Project directory to watch")
	watchCmd.Flags().StringVar(&watchProfilesDir, "profiles-dir", "", "Profile directory (defaults to the project directory)")
	watchCmd.Flags().StringSliceVar(&watchCommands, "commands", []string{"run"}, "dbt commands to run on change")
	rootCmd.AddCommand(watchCmd)
}
