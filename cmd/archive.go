package cmd

import (
	"fmt"

	"hallyu-journalist/internal/archive"
	"hallyu-journalist/internal/model"

	"github.com/spf13/cobra"
)

var archiveCategory string

// archiveCmd copies the current top items into the permanent archive.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive the top items of one or all categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()
		s, err := buildStack(ctx, cfg, stackOptions{})
		if err != nil {
			return err
		}
		defer s.Close()

		cats := cfg.CategoryNames()
		if archiveCategory != "" {
			cc, ok := cfg.Category(archiveCategory)
			if !ok {
				return fmt.Errorf("unknown category %q", archiveCategory)
			}
			cats = []model.Category{model.Category(cc.Name)}
		}

		arc := archive.New(s.store, cfg.Archive.TopN)
		out := cmd.OutOrStdout()
		for _, cat := range cats {
			items, err := s.store.SelectItems(ctx, cat)
			if err != nil {
				return fmt.Errorf("select %s: %w", cat, err)
			}
			n, err := arc.Archive(ctx, cat, items)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-12s archived=%d\n", cat, n)
		}
		return nil
	},
}

func init() {
	archiveCmd.Flags().StringVarP(&archiveCategory, "category", "c", "", "category to archive (default all)")
	rootCmd.AddCommand(archiveCmd)
}
