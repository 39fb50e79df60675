package calculator

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
)

// AggregateReturn averages the members' period returns. The theme figure is
// rounded to 2 dp; the per-ticker map keeps full precision. Members with a
// nil or empty series are excluded from both results.
func AggregateReturn(members map[string]entity.PriceSeries) (float64, map[string]float64) {
	perTicker := make(map[string]float64, len(members))
	values := make([]float64, 0, len(members))
	for ticker, s := range members {
		if len(s) == 0 {
			continue
		}
		r := PeriodReturn(s)
		perTicker[ticker] = r
		values = append(values, r)
	}
	if len(values) == 0 {
		return 0, perTicker
	}
	return Round(stat.Mean(values, nil), 2), perTicker
}

// ThemeDailyReturns is the per-date mean of the members' daily returns.
// Dates are the union over all members; each date averages only the
// members valid on it, and a date with no valid member is invalid.
func ThemeDailyReturns(members map[string]entity.PriceSeries) ReturnSeries {
	type acc struct {
		sum float64
		n   int
	}
	byDate := make(map[string]*acc)
	for _, s := range members {
		for _, o := range DailyReturns(s) {
			a, ok := byDate[o.Date]
			if !ok {
				a = &acc{}
				byDate[o.Date] = a
			}
			if o.Valid {
				a.sum += o.Value
				a.n++
			}
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make(ReturnSeries, len(dates))
	for i, d := range dates {
		a := byDate[d]
		out[i] = Observation{Date: d}
		if a.n > 0 {
			out[i].Value = a.sum / float64(a.n)
			out[i].Valid = true
		}
	}
	return out
}
