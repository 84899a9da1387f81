package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/cli"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play <quiz-id>",
	Short: "Play a quiz in the terminal",
	Long:  `Walks a quiz interactively. Type 'quit' to stop.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		runID, _ := cmd.Flags().GetString("run")
		save, _ := cmd.Flags().GetBool("save")
		headless, _ := cmd.Flags().GetBool("headless")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Play(ctx, cli.PlayOptions{
			Config:   cfg,
			QuizID:   args[0],
			RunID:    runID,
			Save:     save,
			Headless: headless,
			In:       os.Stdin,
			Out:      os.Stdout,
			Err:      os.Stderr,
		})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().String("run", "", "Run id (generated when empty)")
	playCmd.Flags().Bool("save", false, "Save the finished run to the configured store")
	playCmd.Flags().Bool("headless", false, "Plain text IO without banner or markdown rendering")
}
