package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/prodplan/pkg/application/services/catalog"
	"github.com/vsinha/prodplan/pkg/application/services/production"
	"github.com/vsinha/prodplan/pkg/infrastructure/events"
	"github.com/vsinha/prodplan/pkg/infrastructure/metrics"
	"github.com/vsinha/prodplan/pkg/interfaces/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and planning HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := app.Config
			logger := app.Logger.With(zap.String("component", "http"))

			store, err := openCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			eventStore := events.NewInMemoryEventStore(logger)
			if err := eventStore.Subscribe([]string{events.AllEvents}, auditLog(logger)); err != nil {
				return err
			}

			opts := httpapi.Options{Logger: logger}
			var planningMetrics *metrics.PlanningMetrics
			if cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				planningMetrics = metrics.NewPlanningMetrics(reg)
				opts.Registerer = reg
				opts.Gatherer = reg
				opts.MetricsPath = cfg.Metrics.Path
			}
			if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
				opts.Ping = pinger.Ping
			}

			srv := httpapi.NewServer(httpapi.Services{
				Products:     catalog.NewProductService(store.Products(), store.RawMaterials(), eventStore, logger),
				RawMaterials: catalog.NewRawMaterialService(store.RawMaterials(), eventStore, logger),
				Production: production.NewService(store,
					production.WithPublisher(eventStore),
					production.WithMetrics(planningMetrics),
					production.WithLogger(logger),
				),
			}, opts)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Start(cfg.HTTP.Addr)
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down HTTP server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	return cmd
}

// auditLog records every catalog and planning event at debug level
func auditLog(logger *zap.Logger) events.EventHandler {
	return &events.HandlerFunc{Fn: func(e events.Event) error {
		logger.Debug("event",
			zap.String("event_type", e.Type()),
			zap.String("stream", e.StreamID()),
			zap.Int("version", e.Version()),
		)
		return nil
	}}
}
