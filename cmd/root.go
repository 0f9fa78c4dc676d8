package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dbtflow/dbtflow/internal/logger"
	"github.com/dbtflow/dbtflow/internal/paths"
)

var (
	jsonLog bool
	log     *zap.SugaredLogger = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "dbtflow",
	Short: "dbtflow - demo-pipeline orchestrator for dbt projects",
	Long: `dbtflow acquires dbt demo projects, generates connection profiles,
runs dbt command sequences against local or warehouse targets, and verifies
the resulting tables.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		l, err := logger.New(jsonLog)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

func Execute() error {
	// Silence usage and errors to avoid cluttering output with Cobra defaults
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Emit JSON log output")
	rootCmd.PersistentFlags().String("work-dir", "", "Working directory for projects, data and profiles")
	rootCmd.PersistentFlags().String("dbt-bin", "", "Path to the dbt binary")
	_ = viper.BindPFlag("work_dir", rootCmd.PersistentFlags().Lookup("work-dir"))
	_ = viper.BindPFlag("dbt_bin", rootCmd.PersistentFlags().Lookup("dbt-bin"))
}

func initConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(paths.DefaultConfigDir())
	viper.SetEnvPrefix("DBTFLOW")
	viper.AutomaticEnv()

	viper.SetDefault("work_dir", ".")
	viper.SetDefault("dbt_bin", "dbt")
	viper.SetDefault("adapter", "sqlite")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}
