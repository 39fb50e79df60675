package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/analytics/calculator"
	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/cache"
)

// SectorHeatmapTTL is how long a sector heatmap is served from the cache.
const SectorHeatmapTTL = 5 * time.Minute

// MarketData は株価・時価総額の取得元です。
type MarketData interface {
	FetchBatch(ctx context.Context, tickers []string, period mdentity.Period, concurrency int) map[string]mdentity.PriceSeries
	MarketCaps(ctx context.Context, tickers []string) map[string]mdentity.MarketCap
	LastTradingDate(ctx context.Context) string
	Concurrency() int
}

// Catalog is the read side of the theme registry used by the views.
type Catalog interface {
	Themes() []entity.Theme
	Theme(id string) (entity.Theme, error)
	AllTickers() []string
}

var _ Catalog = (*Registry)(nil)

// ThemeViews computes theme-level views on demand and memoizes them in the
// result cache.
type ThemeViews struct {
	data    MarketData
	catalog Catalog
	cache   *cache.ResultCache
	logger  zerolog.Logger
}

// NewThemeViews は ThemeViews を生成します。cache が nil なら毎回計算します。
func NewThemeViews(data MarketData, catalog Catalog, rc *cache.ResultCache, logger zerolog.Logger) *ThemeViews {
	return &ThemeViews{
		data:    data,
		catalog: catalog,
		cache:   rc,
		logger:  logger.With().Str("component", "theme_views").Logger(),
	}
}

// History returns the theme's cumulative return per date. A date on which
// no member has a return is rendered as 0.
func (v *ThemeViews) History(ctx context.Context, themeID string, period mdentity.Period) (entity.ThemeHistory, error) {
	th, err := v.catalog.Theme(themeID)
	if err != nil {
		return entity.ThemeHistory{}, err
	}
	var ttl time.Duration
	if v.cache != nil {
		ttl = v.cache.TTL()
	}
	key := "theme_history:" + th.ID + ":" + string(period)
	return cache.GetOrCompute(ctx, v.cache, key, ttl, func(ctx context.Context) (entity.ThemeHistory, error) {
		return v.history(ctx, th, period), nil
	})
}

func (v *ThemeViews) history(ctx context.Context, th entity.Theme, period mdentity.Period) entity.ThemeHistory {
	out := entity.ThemeHistory{ID: th.ID, Name: th.Name, Period: string(period), History: []entity.HistoryPoint{}}

	members := v.data.FetchBatch(ctx, th.Tickers, period, v.data.Concurrency())
	returns := calculator.ThemeDailyReturns(members)
	if len(returns) == 0 {
		v.logger.Debug().Str("theme", th.ID).Str("period", string(period)).Msg("no returns for theme history")
		return out
	}

	curve := calculator.NewSparkline(returns, period).Data
	for i, o := range returns {
		out.History = append(out.History, entity.HistoryPoint{Date: o.Date, CumulativeReturn: curve[i]})
	}
	return out
}

// SectorHeatmap returns every theme with its average change and members,
// sorted by average change. Results are cached for SectorHeatmapTTL.
func (v *ThemeViews) SectorHeatmap(ctx context.Context, period mdentity.Period) (entity.SectorHeatmap, error) {
	key := "heatmap_sector:" + string(period)
	return cache.GetOrCompute(ctx, v.cache, key, SectorHeatmapTTL, func(ctx context.Context) (entity.SectorHeatmap, error) {
		return v.sectorHeatmap(ctx, period)
	})
}

func (v *ThemeViews) sectorHeatmap(ctx context.Context, period mdentity.Period) (entity.SectorHeatmap, error) {
	tickers := v.catalog.AllTickers()
	batch := v.data.FetchBatch(ctx, tickers, period, v.data.Concurrency())
	if err := ctx.Err(); err != nil {
		return entity.SectorHeatmap{}, fmt.Errorf("sector heatmap %s: %w", period, err)
	}
	caps := v.data.MarketCaps(ctx, tickers)

	themes := v.catalog.Themes()
	sectors := make([]entity.Sector, 0, len(themes))
	for _, th := range themes {
		members := make(map[string]mdentity.PriceSeries, len(th.Tickers))
		for _, t := range th.Tickers {
			if s, ok := batch[t]; ok {
				members[t] = s
			}
		}
		avg, returns := calculator.AggregateReturn(members)

		stocks := make([]entity.SectorStock, 0, len(th.Tickers))
		for _, t := range th.Tickers {
			mc, ok := caps[t]
			if !ok {
				mc = mdentity.UnknownMarketCap()
			}
			stocks = append(stocks, entity.SectorStock{
				Code:              t,
				Name:              th.StockName(t),
				ChangePercent:     calculator.Round(returns[t], 2),
				MarketCap:         mc.Value,
				MarketCapCategory: mc.Category,
			})
		}
		sort.SliceStable(stocks, func(i, j int) bool { return stocks[i].ChangePercent > stocks[j].ChangePercent })

		sectors = append(sectors, entity.Sector{
			ID:            th.ID,
			Name:          th.Name,
			Description:   th.Description,
			AverageChange: avg,
			Stocks:        stocks,
			StockCount:    len(stocks),
		})
	}
	sort.SliceStable(sectors, func(i, j int) bool { return sectors[i].AverageChange > sectors[j].AverageChange })

	out := entity.SectorHeatmap{Period: string(period), Sectors: sectors, TotalSectors: len(sectors)}
	if d := v.data.LastTradingDate(ctx); d != "" {
		out.LastUpdated = &d
	}
	return out, nil
}
