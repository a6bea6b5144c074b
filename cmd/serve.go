package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sms-bridge/internal/api"
	"sms-bridge/internal/events"
	"sms-bridge/internal/handlers"
	"sms-bridge/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the event hub and background jobs",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := events.NewHub(logger)
	var emitter events.Emitter = hub

	if cfg.Events.RedisURL != "" {
		pub, err := events.NewRedisPublisher(ctx, cfg.Events.RedisURL, cfg.Events.Stream)
		if err != nil {
			return fmt.Errorf("failed to connect event stream: %w", err)
		}
		defer pub.Close()
		emitter = events.Fanout{hub, pub}
		logger.Info().Str("stream", pub.Stream()).Msg("publishing events to redis stream")
	}

	a, err := newApp(ctx, emitter)
	if err != nil {
		return err
	}
	defer a.Close()
	defer hub.Close()

	if cfg.Events.Autostart {
		a.bridge.StartRealtimeSync()
	}

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.NewScheduler(a.store, cfg.Store.WatchSchedule, cfg.Store.WarnThreshold, logger)
		if err != nil {
			return err
		}
		sched.WatchStore()
		sched.Start()
		defer sched.Stop()
	}

	h := handlers.NewHandler(a.bridge, a.listener, a.store, logger)
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(logger, h, hub),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.Env).
			Str("store", cfg.Store.Backend).
			Str("inbox", cfg.Inbox.Source).
			Msg("starting sms-bridge server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.bridge.StopRealtimeSync()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}
