package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navrouter/internal/devserver"
	"github.com/vango-dev/navrouter/pkg/telemetry"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port  int
		host  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the development server",
		Long: `Start the development server.

The server hosts simulated browser sessions, each with its own router and
history, and streams every route change over WebSocket. When routesFile
is configured the file is watched and sessions are reconfigured on save.

Examples:
  navrouter serve
  navrouter serve --port=8080
  navrouter serve --host=0.0.0.0 --watch=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			kv, err := openStore(ctx, cfg, "")
			if err != nil {
				return err
			}
			defer kv.Close()

			srv, err := devserver.New(devserver.Options{
				Config:   cfg,
				Store:    kv,
				Logger:   slog.Default(),
				Metrics:  telemetry.Prometheus(),
				Observer: telemetry.Tracing(),
			})
			if err != nil {
				return err
			}

			if path := cfg.RoutesPath(); watch && path != "" {
				go func() {
					if err := srv.Watch(ctx, path); err != nil {
						slog.Error("watch routes", "path", path, "error", err)
					}
				}()
			}

			out := cmd.OutOrStdout()
			success(out, "Serving %d routes on http://%s", len(cfg.Routes), cfg.ServerAddress())
			info(out, "history: %s storage, key %q", cfg.Storage.Backend, cfg.History.Key)
			if err := srv.ListenAndServe(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "\n  Shutting down...")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", true, "Reload the routes file on change")

	return cmd
}
