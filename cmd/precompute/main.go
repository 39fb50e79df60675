// Command precompute runs a single snapshot update and exits.
//
//	precompute                 全テーマ・全期間を再計算
//	precompute -heatmap        ヒートマップのみ再計算
//	precompute -ticker 7203    指定銘柄を含むテーマのみ再計算
//	precompute -if-stale       スナップショットが古い場合のみ再計算
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/app/di"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/config"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/logger"
)

func main() {
	ticker := flag.String("ticker", "", "recompute only the themes containing this ticker")
	heatmap := flag.Bool("heatmap", false, "recompute only the heatmap documents")
	ifStale := flag.Bool("if-stale", false, "skip when the 1mo ranking is fresher than DATA_STALENESS_MINUTES")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall deadline")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment(), FilePath: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	app, err := di.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build application")
	}
	defer app.Close()

	start := time.Now()
	switch {
	case *ticker != "":
		err = app.Scheduler.UpdateSingleTicker(ctx, *ticker)
	case *heatmap:
		err = app.Scheduler.RunHeatmapUpdate(ctx)
	case *ifStale:
		err = app.Scheduler.UpdateIfStale(ctx, cfg.StalenessMaxAge)
	default:
		err = app.Scheduler.RunFullUpdate(ctx)
	}
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("precompute failed")
		app.Close()
		os.Exit(1)
	}
	log.Info().Dur("elapsed", time.Since(start)).Str("dir", app.Snapshots.Dir()).Msg("precompute finished")
}
