package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"skillmatch/common/telemetry"
	"skillmatch/services/matching/internal/api"
	"skillmatch/services/matching/internal/config"
	"skillmatch/services/matching/internal/skills"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const serviceVersion = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the catalog and serve the matching API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newHTTPServer(cfg *config.Config, handler *api.Handler, lc fx.Lifecycle, logger *zap.Logger) *http.Server {
	srv := api.NewServer(cfg.HTTPAddr, cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout, handler, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", srv.Addr, err)
			}
			logger.Info("matching service listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down http server")
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

func registerTracing(cfg *config.Config, lc fx.Lifecycle, logger *zap.Logger) {
	if cfg.OTelCollectorURL == "" {
		return
	}

	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitTracer(ctx, "skillmatch", serviceVersion, cfg.OTelCollectorURL)
			if err != nil {
				return err
			}
			logger.Info("tracing enabled", zap.String("collector", cfg.OTelCollectorURL))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	app := fx.New(
		catalogModule,
		fx.Provide(
			newCompleter,
			skills.NewExtractor,
			newPublisher,
			newPipeline,
			api.NewHandler,
			newHTTPServer,
		),
		fx.Invoke(
			registerTracing,
			func(*http.Server) {},
		),
	)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(cmd.Context()); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	return app.Stop(stopCtx)
}
