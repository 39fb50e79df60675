// Package entity defines the on-demand stock views.
package entity

import (
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/analytics/calculator"
)

// NikkeiName is the display name of the benchmark index.
const NikkeiName = "日経225"

// ThemeRef identifies the theme a stock is listed under.
type ThemeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Indicators is the indicator summary plus the regression against the
// stock's theme.
type Indicators struct {
	LatestPrice  *float64 `json:"latest_price"`
	PeriodReturn float64  `json:"period_return"`
	RSI          *float64 `json:"rsi"`
	MA5          *float64 `json:"ma5"`
	MA20         *float64 `json:"ma20"`
	Volatility   float64  `json:"volatility"`
	High         *float64 `json:"high"`
	Low          *float64 `json:"low"`
	Beta         *float64 `json:"beta"`
	Alpha        *float64 `json:"alpha"`
	RSquared     *float64 `json:"r_squared"`
}

// NewIndicators merges an indicator summary and a regression.
func NewIndicators(s calculator.Indicators, r calculator.Regression) Indicators {
	return Indicators{
		LatestPrice:  s.LatestPrice,
		PeriodReturn: s.PeriodReturn,
		RSI:          s.RSI,
		MA5:          s.MA5,
		MA20:         s.MA20,
		Volatility:   s.Volatility,
		High:         s.High,
		Low:          s.Low,
		Beta:         r.Beta,
		Alpha:        r.Alpha,
		RSquared:     r.RSquared,
	}
}

// StockDetail は銘柄詳細画面のレスポンスです。
// price_history と chart_indicators は短い期間でも3か月分を持ち、
// selected_period_start_index が選択期間の開始位置を示します。
type StockDetail struct {
	Ticker                   string                     `json:"ticker"`
	Name                     string                     `json:"name"`
	Description              *string                    `json:"description"`
	Period                   string                     `json:"period"`
	Theme                    *ThemeRef                  `json:"theme"`
	Indicators               Indicators                 `json:"indicators"`
	PriceHistory             []calculator.HistoryPoint  `json:"price_history"`
	SelectedPeriodStartIndex int                        `json:"selected_period_start_index"`
	ChartIndicators          calculator.ChartIndicators `json:"chart_indicators"`
}

// ChartData is the bare price history of one ticker.
type ChartData struct {
	Ticker string                    `json:"ticker"`
	Period string                    `json:"period"`
	Data   []calculator.HistoryPoint `json:"data"`
}

// IndexSummary is the benchmark header shown above the ranking.
// Error is set and Price is nil when the index could not be fetched.
type IndexSummary struct {
	Name            string               `json:"name"`
	Ticker          string               `json:"ticker"`
	Period          string               `json:"period"`
	Price           *float64             `json:"price"`
	ChangePercent   float64              `json:"change_percent"`
	ChangePercent1D *float64             `json:"change_percent_1d"`
	Sparkline       calculator.Sparkline `json:"sparkline"`
	Error           string               `json:"error,omitempty"`
}
