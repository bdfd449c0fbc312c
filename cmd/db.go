package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hallyu-journalist/internal/storage"

	"github.com/spf13/cobra"
)

// dbCmd groups database subcommands.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database utilities",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPostgres(func(ctx context.Context, pg *storage.Postgres) error {
			if err := pg.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		})
	},
}

var dbPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the database connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPostgres(func(ctx context.Context, pg *storage.Postgres) error {
			if err := pg.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		})
	},
}

func withPostgres(fn func(ctx context.Context, pg *storage.Postgres) error) error {
	cfg := GetConfig()
	if cfg.Database.URL == "" {
		return errors.New("database.url (or DATABASE_URL) is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pg, err := storage.OpenPostgres(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer pg.Close()
	return fn(ctx, pg)
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd, dbPingCmd)
	rootCmd.AddCommand(dbCmd)
}
