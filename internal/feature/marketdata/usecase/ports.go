// Package usecase implements market data retrieval: cached single and
// batch price fetches, market capitalization and the last trading date.
package usecase

import (
	"context"
	"time"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
)

// PriceProvider は外部の株価APIから日足を取得します。
// rangeCode はプロバイダに渡す期間（"5d", "1mo" など）です。
type PriceProvider interface {
	DailySeries(ctx context.Context, ticker, rangeCode string) (entity.PriceSeries, error)
}

// MarketCapProvider は外部APIから時価総額（円）を取得します。
type MarketCapProvider interface {
	MarketCap(ctx context.Context, ticker string) (float64, error)
}

// SeriesCache は銘柄×期間単位の永続キャッシュです。
// ok=false はミス（未保存・期限切れ）を表します。
type SeriesCache interface {
	LoadSeries(ticker string, period entity.Period, maxAge time.Duration) (entity.PriceSeries, bool, error)
	SaveSeries(ticker string, period entity.Period, series entity.PriceSeries) error
	DeleteTicker(ticker string) error
	Clear() (int, error)
}

// MarketCapCache は時価総額の永続キャッシュです。
type MarketCapCache interface {
	LoadMarketCap(ticker string, maxAge time.Duration) (float64, bool, error)
	SaveMarketCap(ticker string, yen float64) error
}
