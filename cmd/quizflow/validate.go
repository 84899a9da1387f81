package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [quiz-id...]",
	Short: "Check quiz graphs for consistency",
	Long: `Checks each quiz for structural errors (no start node, dangling edges,
invalid elements) and reports warnings such as unreachable nodes, missing
routes and gaps between score ranges. With no ids every quiz is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		strict, _ := cmd.Flags().GetBool("strict")
		if err := cli.Validate(cmd.Context(), cmd.OutOrStdout(), cfg.Graphs.Dir, args, strict); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Quizzes are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as failures")
}
