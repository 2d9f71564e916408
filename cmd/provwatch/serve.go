package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/provwatch/health"
	"github.com/jonwraymond/provwatch/monitor"
	"github.com/jonwraymond/provwatch/observe"
	"github.com/jonwraymond/provwatch/store"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled checks and serve provider health over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			addr, _ := cmd.Flags().GetString("addr")

			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			return serve(ctx, a, addr)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	return cmd
}

// serve runs until ctx is done, then shuts everything down.
func serve(ctx context.Context, a *app, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(a),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sched := monitor.NewScheduler(a.orch, a.logger)
	if err := sched.Start(); err != nil {
		return err
	}

	changes, unsubscribe := a.orch.Subscribe()
	defer unsubscribe()
	go logChanges(ctx, a.logger, changes)

	go func() {
		if _, err := sched.RunNow(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error(ctx, "initial check failed", observe.F("error", err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "http server listening", observe.F("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := errors.Join(
		serveErr,
		srv.Shutdown(shutdownCtx),
		sched.Stop(shutdownCtx),
		a.Close(shutdownCtx),
	)
	a.logger.Info(shutdownCtx, "shutdown complete")
	return err
}

func newMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, a.orch)
	mux.HandleFunc("POST /providers/{id}/check", checkHandler(a.orch))
	mux.Handle("GET /metrics", a.observer.MetricsHandler())
	return mux
}

// checkHandler runs a manual check. Denied checks still answer 200 with
// the reason in last_error.
func checkHandler(o *monitor.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := o.CheckOne(r.Context(), r.PathValue("id"), monitor.TriggerManual)
		if errors.Is(err, health.ErrUnknownProvider) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}

func logChanges(ctx context.Context, logger observe.Logger, changes <-chan store.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			logger.Info(ctx, "provider status",
				observe.F("provider", c.Provider),
				observe.F("state", c.Status.State.String()),
				observe.F("consecutive_failures", c.Status.ConsecutiveFailures),
			)
		}
	}
}
