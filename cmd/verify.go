package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dbtflow/dbtflow/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify PATH",
	Short: "List tables and row counts in a database file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := verify.Verify(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printVerification(rep)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
