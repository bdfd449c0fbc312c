package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hallyu-journalist/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var apiAddr string

// apiCmd serves only the read API, without scheduling any pipeline work.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the read API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		s, err := buildStack(context.Background(), cfg, stackOptions{})
		if err != nil {
			return err
		}
		defer s.Close()

		if cfg.App.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		addr := cfg.API.Addr
		if apiAddr != "" {
			addr = apiAddr
		}
		router := api.NewRouter(api.NewHandler(s.store, cfg.CategoryNames()), cfg.API.AllowedOrigins)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return api.Serve(ctx, addr, router)
	},
}

func init() {
	apiCmd.Flags().StringVar(&apiAddr, "addr", "", "listen address (default api.addr)")
	rootCmd.AddCommand(apiCmd)
}
