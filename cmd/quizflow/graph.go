package main

import (
	"github.com/spf13/cobra"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <quiz-id>",
	Short: "Export the quiz graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the quiz. With --run the stored run's path is highlighted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		runID, _ := cmd.Flags().GetString("run")
		return cli.Graph(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], runID)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Overlay a stored run")
}
