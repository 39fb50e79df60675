// Package usecase serves per-stock views computed on demand.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/analytics/calculator"
	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/stocks/domain/entity"
	thentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
	thusecase "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/cache"
)

// ErrStockNotFound is returned when no price data exists for a code.
var ErrStockNotFound = errors.New("stock not found")

// IndexTicker is the benchmark index symbol.
const IndexTicker = "^N225"

// chartPeriod is the minimum window drawn on the stock chart.
const chartPeriod = mdentity.Period3M

// PriceSource は株価取得のインターフェースです。
type PriceSource interface {
	FetchOne(ctx context.Context, ticker string, period mdentity.Period) (mdentity.PriceSeries, error)
	FetchBatch(ctx context.Context, tickers []string, period mdentity.Period, concurrency int) map[string]mdentity.PriceSeries
	Concurrency() int
}

// TickerDirectory resolves tickers to their registered theme.
type TickerDirectory interface {
	Lookup(ticker string) (thusecase.TickerInfo, bool)
	Theme(id string) (thentity.Theme, error)
}

// StockUsecase computes stock detail, chart and index views. Results are
// memoized in the result cache; failures are not.
type StockUsecase struct {
	prices PriceSource
	dir    TickerDirectory
	cache  *cache.ResultCache
	logger zerolog.Logger
}

// NewStockUsecase は StockUsecase を生成します。cache が nil なら毎回計算します。
func NewStockUsecase(prices PriceSource, dir TickerDirectory, rc *cache.ResultCache, logger zerolog.Logger) *StockUsecase {
	return &StockUsecase{
		prices: prices,
		dir:    dir,
		cache:  rc,
		logger: logger.With().Str("component", "stocks").Logger(),
	}
}

func (u *StockUsecase) ttl() time.Duration {
	if u.cache == nil {
		return 0
	}
	return u.cache.TTL()
}

// Detail returns the stock detail view for code over period.
func (u *StockUsecase) Detail(ctx context.Context, code string, period mdentity.Period) (entity.StockDetail, error) {
	ticker, err := normalize(code)
	if err != nil {
		return entity.StockDetail{}, err
	}
	key := "stock_detail:" + ticker + ":" + string(period)
	return cache.GetOrCompute(ctx, u.cache, key, u.ttl(), func(ctx context.Context) (entity.StockDetail, error) {
		return u.detail(ctx, ticker, period)
	})
}

func (u *StockUsecase) detail(ctx context.Context, ticker string, period mdentity.Period) (entity.StockDetail, error) {
	series, err := u.prices.FetchOne(ctx, ticker, period)
	if err != nil {
		return entity.StockDetail{}, fmt.Errorf("%s: %w: %w", ticker, ErrStockNotFound, err)
	}

	cp := period
	if period.TradingDays() <= chartPeriod.TradingDays() {
		cp = chartPeriod
	}
	chart := series
	if cp != period {
		if s, err := u.prices.FetchOne(ctx, ticker, cp); err == nil {
			chart = s
		} else {
			u.logger.Debug().Err(err).Str("ticker", ticker).Msg("chart window unavailable, using period series")
		}
	}

	out := entity.StockDetail{
		Ticker:          ticker,
		Name:            ticker,
		Period:          string(period),
		PriceHistory:    calculator.History(chart),
		ChartIndicators: calculator.Chart(chart),
	}
	out.SelectedPeriodStartIndex = max(0, len(out.PriceHistory)-period.TradingDays())

	var reg calculator.Regression
	if info, ok := u.dir.Lookup(ticker); ok {
		out.Name = info.Name
		desc := info.Description
		out.Description = &desc
		out.Theme = &entity.ThemeRef{ID: info.ThemeID, Name: info.ThemeName}
		reg = u.themeRegression(ctx, info.ThemeID, series, period)
	}
	out.Indicators = entity.NewIndicators(calculator.Summarize(ticker, series), reg)
	return out, nil
}

// themeRegression fits the stock's daily returns on its theme's mean daily
// returns over the same period.
func (u *StockUsecase) themeRegression(ctx context.Context, themeID string, series mdentity.PriceSeries, period mdentity.Period) calculator.Regression {
	th, err := u.dir.Theme(themeID)
	if err != nil {
		return calculator.Regression{}
	}
	members := u.prices.FetchBatch(ctx, th.Tickers, period, u.prices.Concurrency())
	themeDaily := calculator.ThemeDailyReturns(members)
	daily := calculator.DailyReturns(series)
	if len(themeDaily) == 0 || len(daily) == 0 {
		return calculator.Regression{}
	}
	return calculator.BetaAlpha(daily, themeDaily, calculator.DefaultMinPoints)
}

// Chart returns the price history of code over period.
func (u *StockUsecase) Chart(ctx context.Context, code string, period mdentity.Period) (entity.ChartData, error) {
	ticker, err := normalize(code)
	if err != nil {
		return entity.ChartData{}, err
	}
	series, err := u.prices.FetchOne(ctx, ticker, period)
	if err != nil {
		return entity.ChartData{}, fmt.Errorf("%s: %w: %w", ticker, ErrStockNotFound, err)
	}
	return entity.ChartData{Ticker: ticker, Period: string(period), Data: calculator.History(series)}, nil
}

// Index returns the Nikkei 225 summary. A fetch failure yields a record
// with Error set rather than an error.
func (u *StockUsecase) Index(ctx context.Context, period mdentity.Period) entity.IndexSummary {
	key := "nikkei225:" + string(period)
	out, err := cache.GetOrCompute(ctx, u.cache, key, u.ttl(), func(ctx context.Context) (entity.IndexSummary, error) {
		return u.index(ctx, period)
	})
	if err != nil {
		u.logger.Warn().Err(err).Str("period", string(period)).Msg("index fetch failed")
		return entity.IndexSummary{
			Name:      entity.NikkeiName,
			Ticker:    IndexTicker,
			Period:    string(period),
			Sparkline: calculator.EmptySparkline(),
			Error:     "データ取得失敗",
		}
	}
	return out
}

func (u *StockUsecase) index(ctx context.Context, period mdentity.Period) (entity.IndexSummary, error) {
	series, err := u.prices.FetchOne(ctx, IndexTicker, period)
	if err != nil {
		return entity.IndexSummary{}, err
	}
	last, _ := series.Last()
	price := calculator.Round(last.Close, 2)

	out := entity.IndexSummary{
		Name:          entity.NikkeiName,
		Ticker:        IndexTicker,
		Period:        string(period),
		Price:         &price,
		ChangePercent: calculator.Round(calculator.PeriodReturn(series), 2),
		Sparkline:     calculator.EmptySparkline(),
	}
	if period != mdentity.Period1D {
		if day, err := u.prices.FetchOne(ctx, IndexTicker, mdentity.Period1D); err == nil {
			r := calculator.Round(calculator.PeriodReturn(day), 2)
			out.ChangePercent1D = &r
		}
	}
	if yearly, err := u.prices.FetchOne(ctx, IndexTicker, mdentity.Period1Y); err == nil {
		out.Sparkline = calculator.NewSparkline(calculator.DailyReturns(yearly), period)
	}
	return out, nil
}

func normalize(code string) (string, error) {
	ticker, err := mdentity.NormalizeTicker(code)
	if err != nil {
		return "", fmt.Errorf("%q: %w: %w", code, ErrStockNotFound, err)
	}
	return ticker, nil
}
