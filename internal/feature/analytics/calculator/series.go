// Package calculator turns price series into return, risk and technical
// metrics. Every function is pure: no I/O, no shared state.
//
// Undefined points are never NaN. Indicator lines use nil entries (JSON
// null) and dated return series carry an explicit Valid flag.
package calculator

import (
	"math"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
)

// Line is an indicator aligned index-for-index with its input closes.
// A nil entry marks an undefined point.
type Line []*float64

// Observation is one dated value of a return series.
type Observation struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// ReturnSeries is a date-ordered series of percent returns.
type ReturnSeries []Observation

// Values returns the valid values in order.
func (r ReturnSeries) Values() []float64 {
	out := make([]float64, 0, len(r))
	for _, o := range r {
		if o.Valid {
			out = append(out, o.Value)
		}
	}
	return out
}

// ValidCount reports how many observations are defined.
func (r ReturnSeries) ValidCount() int {
	n := 0
	for _, o := range r {
		if o.Valid {
			n++
		}
	}
	return n
}

// PeriodReturn is the percent change from the first to the last close.
// Fewer than two bars or a zero first close yield 0.
func PeriodReturn(series entity.PriceSeries) float64 {
	if len(series) < 2 {
		return 0
	}
	first := series[0].Close
	if first == 0 {
		return 0
	}
	r := (series[len(series)-1].Close - first) / first * 100
	if !isFinite(r) {
		return 0
	}
	return r
}

// DailyReturns is the percent change between consecutive closes. The first
// observation has no predecessor and is invalid.
func DailyReturns(series entity.PriceSeries) ReturnSeries {
	out := make(ReturnSeries, len(series))
	for i, c := range series {
		out[i] = Observation{Date: c.Date()}
		if i == 0 {
			continue
		}
		prev := series[i-1].Close
		if prev == 0 {
			continue
		}
		v := (c.Close - prev) / prev * 100
		if isFinite(v) {
			out[i].Value = v
			out[i].Valid = true
		}
	}
	return out
}

// Round rounds v to dp decimal places, half away from zero.
func Round(v float64, dp int) float64 {
	p := math.Pow(10, float64(dp))
	return math.Round(v*p) / p
}

// RoundPtr rounds a nullable value.
func RoundPtr(v *float64, dp int) *float64 {
	if v == nil {
		return nil
	}
	r := Round(*v, dp)
	return &r
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// finitePtr returns nil for NaN or ±Inf.
func finitePtr(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}
