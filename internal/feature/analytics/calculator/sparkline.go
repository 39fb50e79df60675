package calculator

import "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"

// Sparkline is a cumulative-return curve with the index where the
// selected period begins.
type Sparkline struct {
	Data             []float64 `json:"data"`
	PeriodStartIndex int       `json:"period_start_index"`
}

// EmptySparkline is the degraded value used when no returns exist.
func EmptySparkline() Sparkline {
	return Sparkline{Data: []float64{}, PeriodStartIndex: 0}
}

// PeriodDays maps a period code to its approximate trading-day count.
// Unknown codes map to 21.
func PeriodDays(code string) int {
	return entity.Period(code).TradingDays()
}

// NewSparkline compounds daily percent returns into a cumulative percent
// curve, (∏(1+r/100) - 1)·100, rounded to 2 dp. Invalid points leave the
// product unchanged and are rendered as 0. The output has one point per
// input observation.
func NewSparkline(returns ReturnSeries, period entity.Period) Sparkline {
	if len(returns) == 0 {
		return EmptySparkline()
	}

	data := make([]float64, len(returns))
	product := 1.0
	for i, o := range returns {
		if !o.Valid {
			data[i] = 0
			continue
		}
		product *= 1 + o.Value/100
		v := (product - 1) * 100
		if isFinite(v) {
			data[i] = Round(v, 2)
		}
	}

	start := len(data) - period.TradingDays()
	if start < 0 {
		start = 0
	}
	return Sparkline{Data: data, PeriodStartIndex: start}
}
