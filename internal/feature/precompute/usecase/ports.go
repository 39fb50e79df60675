// Package usecase implements the snapshot precomputation jobs.
package usecase

import (
	"context"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	mdusecase "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/domain/entity"
	thentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
)

// MarketData is the subset of the fetcher used by the jobs.
type MarketData interface {
	FetchBatchResults(ctx context.Context, tickers []string, period mdentity.Period, concurrency int) map[string]mdusecase.FetchResult
	MarketCaps(ctx context.Context, tickers []string) map[string]mdentity.MarketCap
	LastTradingDate(ctx context.Context) string
	Invalidate(ticker string)
	Concurrency() int
}

// ThemeIndex is the read-only theme registry.
type ThemeIndex interface {
	Themes() []thentity.Theme
	AllTickers() []string
	ThemesContaining(ticker string) []thentity.Theme
}

// SnapshotStore persists snapshot documents. Each Save must publish the
// document atomically.
type SnapshotStore interface {
	SaveRanking(doc entity.RankingDocument) error
	SaveDetail(doc entity.ThemeDetailDocument) error
	SaveHeatmap(doc entity.HeatmapDocument) error
	RankingGeneratedAt(period mdentity.Period) (string, error)
}
