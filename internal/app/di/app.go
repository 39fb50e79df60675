package di

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	mdusecase "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/usecase"
	pcadapters "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/adapters"
	pcusecase "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/usecase"
	stusecase "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/stocks/usecase"
	thadapters "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/adapters"
	thusecase "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/cache"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/config"
)

// App はプロセス全体で共有するコンポーネントの集合です。
// cmd/server と cmd/precompute の両方から利用されます。
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Redis     *redis.Client // nil when Redis is disabled or unreachable
	Cache     *cache.ResultCache
	Registry  *thusecase.Registry
	Fetcher   *mdusecase.Fetcher
	Snapshots *pcadapters.SnapshotStore
	Scheduler *pcusecase.Scheduler
	Stocks    *stusecase.StockUsecase
	Themes    *thusecase.ThemeViews
}

// Build はアプリケーションの依存関係を組み立てます。
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	registry, err := thusecase.LoadRegistry(thadapters.NewYAMLRegistry(cfg.ThemesFile))
	if err != nil {
		return nil, fmt.Errorf("load themes: %w", err)
	}
	logger.Info().Int("themes", registry.Len()).Int("tickers", len(registry.AllTickers())).Msg("theme registry loaded")

	fetcher, err := NewFetcher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	rc, rdb := NewResultCache(ctx, cfg, logger)
	store := pcadapters.NewSnapshotStore(cfg.PrecomputedDir)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Redis:     rdb,
		Cache:     rc,
		Registry:  registry,
		Fetcher:   fetcher,
		Snapshots: store,
		Scheduler: pcusecase.NewScheduler(fetcher, registry, store, logger),
		Stocks:    stusecase.NewStockUsecase(fetcher, registry, rc, logger),
		Themes:    thusecase.NewThemeViews(fetcher, registry, rc, logger),
	}, nil
}

// Close は外部接続を閉じます。
func (a *App) Close() {
	if a.Redis == nil {
		return
	}
	if err := a.Redis.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("failed to close redis client")
	}
}
