package cmd

import (
	"fmt"
	"log/slog"

	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	runCategories []string
	runDryRun     bool
)

// runCmd runs the pipeline once for the given categories, or all of them.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run collection and curation once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()

		s, err := buildStack(ctx, cfg, stackOptions{dryRun: runDryRun, needLLM: true})
		if err != nil {
			return err
		}
		defer s.Close()

		cats := make([]model.Category, 0, len(runCategories))
		for _, c := range runCategories {
			cc, ok := cfg.Category(c)
			if !ok {
				return fmt.Errorf("unknown category %q", c)
			}
			cats = append(cats, model.Category(cc.Name))
		}

		reports, err := s.runner.RunAll(ctx, cats)
		printReports(cmd, reports)
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range reports {
			if !r.OK() {
				failed++
			}
		}
		if failed > 0 {
			slog.Warn("run: finished with errors", "categories", len(reports), "failed", failed)
		}
		return nil
	},
}

func printReports(cmd *cobra.Command, reports []pipeline.Report) {
	out := cmd.OutOrStdout()
	for _, r := range reports {
		status := "ok"
		if !r.OK() {
			status = "partial"
		}
		fmt.Fprintf(out, "%-12s %-8s %-7s candidates=%d curated=%d upserted=%d evicted=%d archived=%d\n",
			r.Category, r.Mode, status, r.Candidates, r.Curated, r.Upserted, r.Evicted, r.Archived)
		for stage, msg := range r.Errors {
			fmt.Fprintf(out, "  %s: %s\n", stage, msg)
		}
	}
}

func init() {
	runCmd.Flags().StringSliceVarP(&runCategories, "category", "c", nil, "category to run (repeatable; default all)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "use an in-memory store instead of the database")
	rootCmd.AddCommand(runCmd)
}
