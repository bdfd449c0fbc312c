package cmd

import (
	"hallyu-journalist/internal/pipeline"
	"hallyu-journalist/worker"

	"github.com/spf13/cobra"
)

// rotateCmd processes the next category of the rotation. Meant for an
// external scheduler; the cursor lives in Redis when configured.
var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Run the pipeline for the next category in rotation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()
		s, err := buildStack(ctx, cfg, stackOptions{needLLM: true})
		if err != nil {
			return err
		}
		defer s.Close()

		rep, err := worker.Rotate(ctx, s.runner, s.cursor())
		printReports(cmd, []pipeline.Report{rep})
		return err
	},
}

func init() {
	rootCmd.AddCommand(rotateCmd)
}
