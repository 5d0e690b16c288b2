package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/skindex/skindex/internal/aggregator"
	"github.com/skindex/skindex/internal/api/handlers"
	"github.com/skindex/skindex/internal/api/middleware"
	"github.com/skindex/skindex/internal/config"
	"github.com/skindex/skindex/pkg/logger"
	"github.com/skindex/skindex/pkg/tracing"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and warm-query scheduler",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	telemetry, tracer, err := tracing.Init(cmd.Context(), cfg.Tracing.Enabled, cfg.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	agg := buildAggregator(cfg, log, tracer)
	log.Info("providers registered", "providers", agg.Providers())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if cfg.Server.ReadTimeout > 0 {
		e.Server.ReadTimeout = cfg.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout > 0 {
		e.Server.WriteTimeout = cfg.Server.WriteTimeout
	}

	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Recovery(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler()
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("skindex", version))
	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(
		agg,
		cfg.Aggregator.DefaultCurrency,
		cfg.Aggregator.DefaultCountry,
	))
	handlers.RegisterCandidatesRoutes(api, handlers.NewCandidatesHandler())

	var scheduler *aggregator.Scheduler
	if cfg.Warm.Enabled {
		scheduler, err = aggregator.NewScheduler(
			agg, warmQueries(cfg), cfg.Warm.Interval, log,
			aggregator.WithNotifier(buildNotifier(cfg, log), cfg.Notify.MinDiscount),
		)
		if err != nil {
			return fmt.Errorf("creating warm scheduler: %w", err)
		}
		scheduler.Start()
		log.Info("warm scheduler started",
			"interval", cfg.Warm.Interval,
			"queries", len(cfg.Warm.Queries),
		)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	if err := telemetry.Shutdown(ctx); err != nil {
		log.Warn("telemetry shutdown", "err", err)
	}

	log.Info("server stopped")
	return nil
}
