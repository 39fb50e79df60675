package usecase

import (
	"sort"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/analytics/calculator"
	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/domain/entity"
	thentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
)

const (
	topStockCount   = 3
	regressionDigit = 3
)

// periodInputs is everything a per-theme computation reads for one period.
// day is nil for the 1d period itself or when the 1d batch is unavailable.
type periodInputs struct {
	period mdentity.Period
	batch  map[string]mdentity.PriceSeries
	day    map[string]mdentity.PriceSeries
	yearly map[string]mdentity.PriceSeries
	caps   map[string]mdentity.MarketCap
}

// themeResult pairs the ranking row with the detail document of one theme.
type themeResult struct {
	summary entity.ThemeSummary
	detail  entity.ThemeDetailDocument
}

type themeBuilder func(th thentity.Theme, in periodInputs) themeResult

// subset picks the members of tickers present in batch.
func subset(batch map[string]mdentity.PriceSeries, tickers []string) map[string]mdentity.PriceSeries {
	out := make(map[string]mdentity.PriceSeries, len(tickers))
	for _, t := range tickers {
		if s, ok := batch[t]; ok {
			out[t] = s
		}
	}
	return out
}

// buildTheme computes a theme's ranking row and detail document.
// Generated/last-updated stamps are filled in by the caller.
func buildTheme(th thentity.Theme, in periodInputs) themeResult {
	themeReturn, stockReturns := calculator.AggregateReturn(subset(in.batch, th.Tickers))

	var themeReturn1D *float64
	var stockReturns1D map[string]float64
	if in.day != nil && in.period != mdentity.Period1D && len(in.day) > 0 {
		r, per := calculator.AggregateReturn(subset(in.day, th.Tickers))
		themeReturn1D, stockReturns1D = &r, per
	}

	themeDaily := calculator.ThemeDailyReturns(subset(in.yearly, th.Tickers))
	themeSpark := calculator.NewSparkline(themeDaily, in.period)

	stocks := make([]entity.StockDetail, 0, len(th.Tickers))
	for _, t := range th.Tickers {
		stocks = append(stocks, buildStock(th, t, in, stockReturns, stockReturns1D, themeDaily))
	}
	sort.SliceStable(stocks, func(i, j int) bool { return stocks[i].ChangePercent > stocks[j].ChangePercent })

	return themeResult{
		summary: entity.ThemeSummary{
			ID:              th.ID,
			Name:            th.Name,
			Description:     th.Description,
			ChangePercent:   themeReturn,
			ChangePercent1D: themeReturn1D,
			StockCount:      len(th.Tickers),
			TopStocks:       topStocks(th, stockReturns),
			Sparkline:       themeSpark,
		},
		detail: entity.ThemeDetailDocument{
			ID:              th.ID,
			Name:            th.Name,
			Description:     th.Description,
			ChangePercent:   themeReturn,
			ChangePercent1D: themeReturn1D,
			StockCount:      len(th.Tickers),
			Sparkline:       themeSpark,
			Stocks:          stocks,
			Period:          string(in.period),
		},
	}
}

func buildStock(
	th thentity.Theme,
	ticker string,
	in periodInputs,
	returns, returns1D map[string]float64,
	themeDaily calculator.ReturnSeries,
) entity.StockDetail {
	sd := entity.StockDetail{
		Code:          ticker,
		Name:          th.StockName(ticker),
		Description:   th.StockDescription(ticker),
		ChangePercent: calculator.Round(returns[ticker], 2),
		Sparkline:     calculator.EmptySparkline(),
		MarketCap:     mdentity.UnknownMarketCap(),
	}
	if in.period != mdentity.Period1D {
		if v, ok := returns1D[ticker]; ok {
			r := calculator.Round(v, 2)
			sd.ChangePercent1D = &r
		}
	}

	if series, ok := in.yearly[ticker]; ok {
		daily := calculator.DailyReturns(series)
		if len(daily) > 0 && len(themeDaily) > 0 {
			reg := calculator.BetaAlpha(daily, themeDaily, calculator.DefaultMinPoints)
			sd.Beta = calculator.RoundPtr(reg.Beta, regressionDigit)
			sd.Alpha = calculator.RoundPtr(reg.Alpha, regressionDigit)
			sd.RSquared = calculator.RoundPtr(reg.RSquared, regressionDigit)
		}
		sd.Sparkline = calculator.NewSparkline(daily, in.period)
	}

	if mc, ok := in.caps[ticker]; ok {
		sd.MarketCap = mc
	}
	return sd
}

// topStocks returns the three best performers among members with data,
// ties kept in registry order.
func topStocks(th thentity.Theme, returns map[string]float64) []entity.TopStock {
	ranked := make([]string, 0, len(returns))
	for _, t := range th.Tickers {
		if _, ok := returns[t]; ok {
			ranked = append(ranked, t)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return returns[ranked[i]] > returns[ranked[j]] })
	if len(ranked) > topStockCount {
		ranked = ranked[:topStockCount]
	}

	out := make([]entity.TopStock, 0, len(ranked))
	for _, t := range ranked {
		out = append(out, entity.TopStock{Code: t, Name: th.StockName(t), ChangePercent: calculator.Round(returns[t], 2)})
	}
	return out
}

// degradedTheme is emitted when a theme's computation fails.
func degradedTheme(th thentity.Theme, period mdentity.Period, err error) themeResult {
	return themeResult{
		summary: entity.ThemeSummary{
			ID:          th.ID,
			Name:        th.Name,
			Description: th.Description,
			StockCount:  len(th.Tickers),
			TopStocks:   []entity.TopStock{},
			Sparkline:   calculator.EmptySparkline(),
			Error:       err.Error(),
		},
		detail: entity.ThemeDetailDocument{
			ID:          th.ID,
			Name:        th.Name,
			Description: th.Description,
			StockCount:  len(th.Tickers),
			Sparkline:   calculator.EmptySparkline(),
			Stocks:      []entity.StockDetail{},
			Period:      string(period),
			Error:       err.Error(),
		},
	}
}
