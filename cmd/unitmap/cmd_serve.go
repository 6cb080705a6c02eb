package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/unitmap/internal/api"
	"github.com/gyaneshwarpardhi/unitmap/internal/config"
)

func newServeCmd(opts *globalOpts) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve plans and builds over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, eng, err := openEngine(opts)
			if err != nil {
				return err
			}

			// ── Hot-reload watcher ─────────────────────────────────────────
			loader.OnChange(func(newCfg *config.BuildConfig) {
				if err := config.Validate(newCfg); err != nil {
					slog.Warn("hot-reload skipped: config invalid", "err", err)
					return
				}
				eng.SwapConfig(newCfg)
				slog.Info("config hot-reloaded", "folders", len(newCfg.Folders))
			})
			stopWatch, err := loader.Watch()
			if err != nil {
				slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
			} else {
				defer stopWatch()
			}

			// ── HTTP server ────────────────────────────────────────────────
			srv := &http.Server{
				Addr:         addr,
				Handler:      api.New(eng, loader),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Minute,
				IdleTimeout:  60 * time.Second,
			}
			errC := make(chan error, 1)
			go func() {
				slog.Info("server starting", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errC <- err
				}
			}()

			// ── Graceful shutdown ──────────────────────────────────────────
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-errC:
				return err
			}
			slog.Info("shutting down…")

			shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutCancel()
			_ = srv.Shutdown(shutCtx)
			slog.Info("goodbye")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	return cmd
}
