// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/rs/zerolog"

	mdadapters "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/adapters"
	mdusecase "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/config"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/externalapi/yahoo"
	infrahttp "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/http"
)

// NewFetcher creates a Fetcher backed by the Yahoo Finance client and the
// on-disk price cache.
func NewFetcher(cfg *config.Config, logger zerolog.Logger) (*mdusecase.Fetcher, error) {
	ycfg := yahoo.LoadConfig(cfg.Yahoo)
	client := yahoo.NewClient(ycfg, infrahttp.NewHTTPClient(ycfg.Timeout), logger)
	disk := mdadapters.NewDiskCache(cfg.CacheDir)

	return mdusecase.NewFetcher(client, client, disk, disk, mdusecase.FetcherConfig{
		DiskTTL:       cfg.PriceCacheTTL,
		MemoryEntries: cfg.MemoryEntries,
		Concurrency:   cfg.FetchConcurrency,
		TaskTimeout:   cfg.FetchTimeout,
	}, logger)
}
