package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hallyu-journalist/internal/api"
	"hallyu-journalist/worker"

	"github.com/spf13/cobra"
)

// serveCmd runs the scheduler and, when enabled, the read API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled pipeline and the read API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		s, err := buildStack(context.Background(), cfg, stackOptions{needLLM: true})
		if err != nil {
			return err
		}
		defer s.Close()

		jobs := []worker.Job{worker.RotateJob(cfg.Schedule.Rotate, s.runner, s.cursor())}
		jobs = append(jobs, worker.Job{Name: "trends", Spec: cfg.Schedule.Trends, Run: func(ctx context.Context) error {
			_, err := s.trends.Analyze(ctx)
			return err
		}})

		ws := []worker.Worker{&worker.Scheduler{Jobs: jobs}}
		if cfg.Schedule.API {
			router := api.NewRouter(api.NewHandler(s.store, cfg.CategoryNames()), cfg.API.AllowedOrigins)
			ws = append(ws, &worker.APIServer{Addr: cfg.API.Addr, Handler: router})
		}
		slog.Info("serve: starting", "categories", cfg.CategoryNames(), "rotate", cfg.Schedule.Rotate, "api", cfg.Schedule.API)

		mgr := worker.NewManager(ws...)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigc
			log.Printf("received signal: %s, shutting down", sig)
			cancel()
		}()

		return mgr.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
