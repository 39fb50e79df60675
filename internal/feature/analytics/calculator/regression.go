package calculator

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultMinPoints is the minimum overlap required by BetaAlpha.
const DefaultMinPoints = 5

// Regression is the OLS fit of an asset's returns on a benchmark's.
// All fields are nil when the fit is undefined.
type Regression struct {
	Beta     *float64 `json:"beta"`
	Alpha    *float64 `json:"alpha"`
	RSquared *float64 `json:"r_squared"`
}

// Defined reports whether the regression produced coefficients.
func (r Regression) Defined() bool {
	return r.Beta != nil && r.Alpha != nil
}

// BetaAlpha regresses asset returns on benchmark returns over their common
// valid dates. Fewer than minPoints pairs, a constant benchmark or a
// non-finite fit yield an undefined Regression. Coefficients are rounded
// to 4 dp.
func BetaAlpha(asset, benchmark ReturnSeries, minPoints int) Regression {
	x, y := alignValid(benchmark, asset)
	if len(x) < minPoints || len(x) < 2 {
		return Regression{}
	}
	if floats.Max(x) == floats.Min(x) {
		return Regression{}
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if !isFinite(alpha) || !isFinite(beta) {
		return Regression{}
	}

	// 目的変数が一定だと相関は NaN になる。その場合 R² は 0 とする
	r := stat.Correlation(x, y, nil)
	r2 := r * r
	if !isFinite(r2) {
		r2 = 0
	}

	return Regression{
		Beta:     roundedPtr(beta, 4),
		Alpha:    roundedPtr(alpha, 4),
		RSquared: roundedPtr(r2, 4),
	}
}

// alignValid pairs the two series on dates where both are valid, in the
// order of b.
func alignValid(a, b ReturnSeries) (xs, ys []float64) {
	byDate := make(map[string]float64, len(a))
	for _, o := range a {
		if o.Valid {
			byDate[o.Date] = o.Value
		}
	}
	for _, o := range b {
		if !o.Valid {
			continue
		}
		if v, ok := byDate[o.Date]; ok {
			xs = append(xs, v)
			ys = append(ys, o.Value)
		}
	}
	return xs, ys
}
