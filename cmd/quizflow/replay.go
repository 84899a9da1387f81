package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/cli"
)

var replayCmd = &cobra.Command{
	Use:   "replay [run-id]",
	Short: "Re-run a recorded answer log and compare outcomes",
	Long: `Loads a recorded run from the configured store (or --file), feeds its
answers back through the current quiz graph and reports whether the score,
termination and result still match.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.ReplayOptions{Config: cfg}
		opts.File, _ = cmd.Flags().GetString("file")
		if len(args) > 0 {
			opts.RunID = args[0]
		}
		if opts.RunID == "" && opts.File == "" {
			return errors.New("provide a run id or --file")
		}
		return cli.Replay(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().String("file", "", "Read the recorded run from a JSON file")
}
