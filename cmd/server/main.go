package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/app/di"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/app/router"
	pchandler "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/transport/handler"
	pcusecase "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/usecase"
	sthandler "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/stocks/transport/handler"
	thhandler "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/transport/handler"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/config"
	healthhandler "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/http/handler"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/http/middleware"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/logger"
	infraredis "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/redis"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/scheduler"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment(), FilePath: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogger(log)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := di.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Cache.StartSweeper(ctx, time.Minute)

	// 起動時、スナップショットが古ければバックグラウンドで再計算
	if cfg.RefreshOnStartup {
		go func() {
			if err := app.Scheduler.UpdateIfStale(ctx, cfg.StalenessMaxAge); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("startup refresh failed")
			}
		}()
	}

	var limiter *middleware.IPRateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	cron := scheduler.New(log)
	if err := cron.AddEvery(cfg.UpdateInterval, pcusecase.FullUpdateJob{Scheduler: app.Scheduler}); err != nil {
		return err
	}
	if limiter != nil {
		prune := scheduler.JobFunc{JobName: "rate_limiter_prune", Fn: func(context.Context) error {
			if n := limiter.Prune(); n > 0 {
				log.Debug().Int("removed", n).Msg("idle rate limiters pruned")
			}
			return nil
		}}
		if err := cron.AddEvery(10*time.Minute, prune); err != nil {
			return err
		}
	}
	cron.Start()
	defer cron.Stop()

	probes := map[string]healthhandler.Probe{}
	if app.Redis != nil {
		probes["redis"] = infraredis.Ping(app.Redis)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewRouter(router.Handlers{
		Health:    healthhandler.NewHealthHandler(probes),
		Search:    thhandler.NewSearchHandler(app.Registry, log),
		Themes:    thhandler.NewThemeHandler(app.Themes, log),
		Snapshots: pchandler.NewSnapshotHandler(app.Snapshots, log),
		Refresh:   pchandler.NewRefreshHandler(ctx, app.Scheduler, app.Cache, log),
		Stocks:    sthandler.NewStockHandler(app.Stocks, log),
	}, router.Options{CORSOrigins: cfg.CORSOrigins, RateLimiter: limiter}, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
