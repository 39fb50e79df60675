package calculator

import (
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
)

// Default indicator windows.
const (
	DefaultRSIPeriod        = 14
	DefaultBollingerWindow  = 20
	DefaultBollingerK       = 2.0
	DefaultVolatilityWindow = 20
)

// Indicators is a point-in-time summary of one ticker over a period.
type Indicators struct {
	Ticker       string   `json:"ticker"`
	LatestPrice  *float64 `json:"latest_price"`
	PeriodReturn float64  `json:"period_return"`
	RSI          *float64 `json:"rsi"`
	MA5          *float64 `json:"ma5"`
	MA20         *float64 `json:"ma20"`
	Volatility   float64  `json:"volatility"`
	High         *float64 `json:"high"`
	Low          *float64 `json:"low"`
}

// HistoryPoint is one chart bar.
type HistoryPoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// MovingAverages are the chart overlay lines.
type MovingAverages struct {
	MA20  Line `json:"ma20"`
	MA75  Line `json:"ma75"`
	MA200 Line `json:"ma200"`
}

// ChartIndicators bundles every line drawn on the stock chart.
type ChartIndicators struct {
	MA        MovingAverages `json:"ma"`
	RSI       Line           `json:"rsi"`
	Bollinger Bollinger      `json:"bollinger"`
	Ichimoku  IchimokuLines  `json:"ichimoku"`
}

// Chart computes the chart lines over series, rounded to 2 dp.
func Chart(series entity.PriceSeries) ChartIndicators {
	closes := series.Closes()
	return ChartIndicators{
		MA: MovingAverages{
			MA20:  roundLine(MovingAverage(closes, 20)),
			MA75:  roundLine(MovingAverage(closes, 75)),
			MA200: roundLine(MovingAverage(closes, 200)),
		},
		RSI:       roundLine(RSI(closes, DefaultRSIPeriod)),
		Bollinger: BollingerBands(closes, DefaultBollingerWindow, DefaultBollingerK),
		Ichimoku:  Ichimoku(series),
	}
}

// Summarize builds the indicator summary. Undefined figures are nil.
func Summarize(ticker string, series entity.PriceSeries) Indicators {
	out := Indicators{
		Ticker:       ticker,
		PeriodReturn: Round(PeriodReturn(series), 2),
		Volatility:   Volatility(series, DefaultVolatilityWindow),
	}

	last, ok := series.Last()
	if !ok {
		return out
	}
	out.LatestPrice = roundedPtr(last.Close, 2)

	closes := series.Closes()
	out.RSI = RoundPtr(lastDefined(RSI(closes, DefaultRSIPeriod)), 2)
	out.MA5 = RoundPtr(lastDefined(MovingAverage(closes, 5)), 2)
	out.MA20 = RoundPtr(lastDefined(MovingAverage(closes, 20)), 2)

	hi, lo := series[0].High, series[0].Low
	for _, c := range series[1:] {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	out.High = roundedPtr(hi, 2)
	out.Low = roundedPtr(lo, 2)
	return out
}

// History renders the series as chart bars rounded to 2 dp.
func History(series entity.PriceSeries) []HistoryPoint {
	out := make([]HistoryPoint, len(series))
	for i, c := range series {
		out[i] = HistoryPoint{
			Date:   c.Date(),
			Open:   Round(c.Open, 2),
			High:   Round(c.High, 2),
			Low:    Round(c.Low, 2),
			Close:  Round(c.Close, 2),
			Volume: c.Volume,
		}
	}
	return out
}

func roundLine(l Line) Line {
	out := make(Line, len(l))
	for i, v := range l {
		out[i] = RoundPtr(v, 2)
	}
	return out
}

// lastDefined returns the final point of a line, or nil.
func lastDefined(l Line) *float64 {
	if len(l) == 0 {
		return nil
	}
	return l[len(l)-1]
}
