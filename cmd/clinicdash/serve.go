package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/clinicdash/observability"
	"github.com/spektr-org/clinicdash/server"
	"github.com/spektr-org/clinicdash/store"
	"github.com/spektr-org/clinicdash/telemetry"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if watch {
				cfg.Data.Watch = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closer, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
				ServiceName:    cfg.Telemetry.ServiceName(),
				ServiceVersion: version,
				Exporter:       cfg.Telemetry.Tracing,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					logger.Warn("tracer shutdown failed", "error", err)
				}
			}()

			st, err := loadStore(cfg, logger)
			if err != nil {
				return err
			}

			var metrics *observability.Metrics
			if cfg.Telemetry.Metrics {
				metrics = observability.NewMetrics()
				metrics.SetDataset(st.Len(), len(st.Schema().Missing))
			}

			srv := server.New(st, cfg, logger, metrics)

			group, gctx := errgroup.WithContext(ctx)
			group.Go(func() error { return srv.Run(gctx) })

			if cfg.Data.Watch {
				w, err := store.NewWatcher(cfg.Data.Path, logger, func(fsnotify.Event) {
					metrics.IncSourceChanges()
				})
				if err != nil {
					stop()
					_ = group.Wait()
					return err
				}
				group.Go(func() error { return w.Run(gctx) })
			}

			return group.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8050)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Warn when the CSV changes on disk")
	return cmd
}
