package main

import (
	"github.com/spf13/cobra"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/cli"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <file>",
	Short: "Upgrade a quiz document to the current schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inPlace, _ := cmd.Flags().GetBool("write")
		return cli.Migrate(cmd.OutOrStdout(), args[0], inPlace)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolP("write", "w", false, "Write the result back to the file")
}
