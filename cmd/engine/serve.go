package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobscrape-engine/internal/httpapi"
	"jobscrape-engine/internal/scheduler"
)

var (
	serveAddr    string
	serveOrigins []string
	serveWait    time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L()
		e, err := buildEngine(ctx, cfg, log, serveWait)
		if err != nil {
			return err
		}
		defer e.Close()

		if cfg.Schedule.Enabled {
			sched, err := scheduler.New(cfg.Schedule.Cron, "scrape", func(ctx context.Context) error {
				_, err := e.svc.TriggerRun(ctx, "", false)
				return err
			}, scheduler.RunOnStart(cfg.Schedule.RunOnStart), scheduler.WithLogger(log.Named("scheduler")))
			if err != nil {
				return err
			}
			sched.Start(ctx)
			defer func() { <-sched.Stop().Done() }()
		}

		addr := cfg.App.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := &http.Server{
			Addr: addr,
			Handler: httpapi.NewRouter(httpapi.Deps{
				Service:        e.svc,
				Hub:            e.hub,
				Log:            log.Named("http"),
				AllowedOrigins: serveOrigins,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("engine listening", zap.String("addr", "http://"+addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides app.addr)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "allowed CORS origins (default any)")
	serveCmd.Flags().DurationVar(&serveWait, "max-wait", 5*time.Minute, "how long POST /scrape/run?wait=true queues behind a running scrape")
	rootCmd.AddCommand(serveCmd)
}
