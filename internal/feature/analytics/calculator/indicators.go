package calculator

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
)

// 一目均衡表のパラメータ
const (
	tenkanWindow  = 9
	kijunWindow   = 26
	senkouBWindow = 52
	ichimokuShift = 26

	tradingDaysPerYear = 252
)

// Bollinger holds the three band lines.
type Bollinger struct {
	Middle Line `json:"middle"`
	Upper  Line `json:"upper"`
	Lower  Line `json:"lower"`
}

// IchimokuLines holds the five Ichimoku lines, each as long as the input.
type IchimokuLines struct {
	Tenkan  Line `json:"tenkan"`
	Kijun   Line `json:"kijun"`
	SenkouA Line `json:"senkou_a"`
	SenkouB Line `json:"senkou_b"`
	Chikou  Line `json:"chikou"`
}

// RSI computes the relative strength index with exponentially smoothed
// gains and losses (alpha = 2/(period+1), seeded at the first bar).
// Index 0 is undefined. Fewer than period+1 closes yield an empty line.
// A zero average loss yields 100.
func RSI(closes []float64, period int) Line {
	if period <= 0 || len(closes) < period+1 {
		return Line{}
	}

	alpha := 2.0 / float64(period+1)
	out := make(Line, len(closes))

	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else if d < 0 {
			loss = -d
		}
		avgGain = alpha*gain + (1-alpha)*avgGain
		avgLoss = alpha*loss + (1-alpha)*avgLoss

		if avgLoss == 0 {
			out[i] = finitePtr(100)
			continue
		}
		out[i] = finitePtr(100 - 100/(1+avgGain/avgLoss))
	}
	return out
}

// MovingAverage is the simple rolling mean. The first window-1 points are
// undefined; fewer than window closes yield an empty line.
func MovingAverage(closes []float64, window int) Line {
	if window <= 0 || len(closes) < window {
		return Line{}
	}
	if window == 1 {
		out := make(Line, len(closes))
		for i, v := range closes {
			out[i] = finitePtr(v)
		}
		return out
	}
	return maskLeading(talib.Sma(closes, window), window-1)
}

// BollingerBands computes middle = SMA(window) and middle ± k·σ where σ is
// the rolling sample standard deviation. Values are rounded to 2 dp.
func BollingerBands(closes []float64, window int, k float64) Bollinger {
	if window < 2 || len(closes) < window {
		return Bollinger{Middle: Line{}, Upper: Line{}, Lower: Line{}}
	}

	sma := talib.Sma(closes, window)
	n := len(closes)
	b := Bollinger{Middle: make(Line, n), Upper: make(Line, n), Lower: make(Line, n)}

	for i := window - 1; i < n; i++ {
		mid := sma[i]
		sd := stat.StdDev(closes[i-window+1:i+1], nil)
		b.Middle[i] = roundedPtr(mid, 2)
		b.Upper[i] = roundedPtr(mid+k*sd, 2)
		b.Lower[i] = roundedPtr(mid-k*sd, 2)
	}
	return b
}

// Ichimoku computes the five lines over a daily series. Shifted lines keep
// the input length: values pushed past either end are dropped. Fewer than
// 52 bars yield empty lines.
func Ichimoku(series entity.PriceSeries) IchimokuLines {
	n := len(series)
	if n < senkouBWindow {
		return IchimokuLines{Tenkan: Line{}, Kijun: Line{}, SenkouA: Line{}, SenkouB: Line{}, Chikou: Line{}}
	}

	highs, lows, closes := series.Highs(), series.Lows(), series.Closes()
	tenkan := midpoint(highs, lows, tenkanWindow)
	kijun := midpoint(highs, lows, kijunWindow)
	spanB := midpoint(highs, lows, senkouBWindow)

	out := IchimokuLines{
		Tenkan:  make(Line, n),
		Kijun:   make(Line, n),
		SenkouA: make(Line, n),
		SenkouB: make(Line, n),
		Chikou:  make(Line, n),
	}

	for i := 0; i < n; i++ {
		if tenkan[i] != nil {
			out.Tenkan[i] = roundedPtr(*tenkan[i], 2)
		}
		if kijun[i] != nil {
			out.Kijun[i] = roundedPtr(*kijun[i], 2)
		}
		if j := i - ichimokuShift; j >= 0 {
			if tenkan[j] != nil && kijun[j] != nil {
				out.SenkouA[i] = roundedPtr((*tenkan[j]+*kijun[j])/2, 2)
			}
			if spanB[j] != nil {
				out.SenkouB[i] = roundedPtr(*spanB[j], 2)
			}
		}
		if j := i + ichimokuShift; j < n {
			out.Chikou[i] = roundedPtr(closes[j], 2)
		}
	}
	return out
}

// Volatility is the annualized sample standard deviation of daily returns
// (σ·√252), rounded to 2 dp. Series shorter than window yield 0.
func Volatility(series entity.PriceSeries, window int) float64 {
	if len(series) == 0 || len(series) < window {
		return 0
	}
	returns := DailyReturns(series).Values()
	if len(returns) < 2 {
		return 0
	}
	v := stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear)
	if !isFinite(v) {
		return 0
	}
	return Round(v, 2)
}

// midpoint is (rolling max(high) + rolling min(low)) / 2.
func midpoint(highs, lows []float64, window int) Line {
	hi := talib.Max(highs, window)
	lo := talib.Min(lows, window)
	out := make(Line, len(highs))
	for i := window - 1; i < len(highs); i++ {
		out[i] = finitePtr((hi[i] + lo[i]) / 2)
	}
	return out
}

// maskLeading wraps a talib output, leaving the lookback prefix undefined.
func maskLeading(values []float64, lookback int) Line {
	out := make(Line, len(values))
	for i := lookback; i < len(values); i++ {
		out[i] = finitePtr(values[i])
	}
	return out
}

func roundedPtr(v float64, dp int) *float64 {
	if !isFinite(v) {
		return nil
	}
	r := Round(v, dp)
	return &r
}
