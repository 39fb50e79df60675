package usecase

import (
	"sort"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/analytics/calculator"
	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/domain/entity"
	thentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
)

func newHeatmapCategories() entity.HeatmapCategories {
	return entity.HeatmapCategories{
		Mega:    entity.NewHeatmapCategory(mdentity.CategoryMega),
		Large:   entity.NewHeatmapCategory(mdentity.CategoryLarge),
		Mid:     entity.NewHeatmapCategory(mdentity.CategoryMid),
		Small:   entity.NewHeatmapCategory(mdentity.CategorySmall),
		Micro:   entity.NewHeatmapCategory(mdentity.CategoryMicro),
		Unknown: entity.NewHeatmapCategory(mdentity.CategoryUnknown),
	}
}

// buildHeatmap buckets every registered ticker by market-cap category.
// A ticker listed by several themes appears once per category, attributed
// to the first theme in registry order. Members without data show 0%.
func buildHeatmap(themes []thentity.Theme, batch map[string]mdentity.PriceSeries, caps map[string]mdentity.MarketCap) entity.HeatmapCategories {
	cats := newHeatmapCategories()
	seen := make(map[string]map[string]struct{})

	for _, th := range themes {
		_, returns := calculator.AggregateReturn(subset(batch, th.Tickers))
		for _, t := range th.Tickers {
			mc, ok := caps[t]
			if !ok {
				mc = mdentity.UnknownMarketCap()
			}
			bucket := cats.ByID(mc.Category.ID)
			if seen[bucket.ID] == nil {
				seen[bucket.ID] = make(map[string]struct{})
			}
			if _, dup := seen[bucket.ID][t]; dup {
				continue
			}
			seen[bucket.ID][t] = struct{}{}

			bucket.Stocks = append(bucket.Stocks, entity.HeatmapStock{
				Code:          t,
				Name:          th.StockName(t),
				ThemeID:       th.ID,
				ThemeName:     th.Name,
				ChangePercent: calculator.Round(returns[t], 2),
				MarketCap:     mc,
			})
		}
	}

	for _, c := range cats.All() {
		sort.SliceStable(c.Stocks, func(i, j int) bool { return c.Stocks[i].ChangePercent > c.Stocks[j].ChangePercent })
		c.Count = len(c.Stocks)
	}
	return cats
}
