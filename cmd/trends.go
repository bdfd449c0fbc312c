package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// trendsCmd recomputes the trending keyword snapshot.
var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Analyze recent titles and replace the trending keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()
		s, err := buildStack(ctx, cfg, stackOptions{needLLM: true})
		if err != nil {
			return err
		}
		defer s.Close()

		kws, err := s.trends.Analyze(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(kws) == 0 {
			fmt.Fprintln(out, "no titles to analyze")
			return nil
		}
		for _, k := range kws {
			fmt.Fprintf(out, "%2d. %s (%d)\n", k.Rank, k.Keyword, k.Count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trendsCmd)
}
