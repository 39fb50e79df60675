package entity

import (
	"errors"
	"fmt"
)

// Period is an analysis window code.
type Period string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period10D Period = "10d"
	Period1M  Period = "1mo"
	Period3M  Period = "3mo"
	Period6M  Period = "6mo"
	Period1Y  Period = "1y"
	Period3Y  Period = "3y"
	Period5Y  Period = "5y"
)

// DefaultTradingDays is used for codes without a known mapping.
const DefaultTradingDays = 21

// ErrUnknownPeriod is returned by ParsePeriod for unsupported codes.
var ErrUnknownPeriod = errors.New("unknown period")

// SnapshotPeriods are the periods precomputed on every scheduled run.
var SnapshotPeriods = []Period{Period1D, Period5D, Period10D, Period1M, Period3M, Period6M, Period1Y}

// AllPeriods additionally includes the long windows served on demand.
var AllPeriods = append(append([]Period{}, SnapshotPeriods...), Period3Y, Period5Y)

var tradingDays = map[Period]int{
	Period1D:  1,
	Period5D:  5,
	Period10D: 10,
	Period1M:  21,
	Period3M:  63,
	Period6M:  126,
	Period1Y:  252,
	Period3Y:  756,
	Period5Y:  1260,
}

// ParsePeriod validates a period code.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := tradingDays[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
	return p, nil
}

// TradingDays maps the period to an approximate trading-day count.
func (p Period) TradingDays() int {
	if n, ok := tradingDays[p]; ok {
		return n
	}
	return DefaultTradingDays
}

// ProviderRange is the range requested from the price provider. One bar is
// not enough for a one-day change, so "1d" asks for five days.
func (p Period) ProviderRange() string {
	if p == Period1D {
		return string(Period5D)
	}
	return string(p)
}

// KeepBars is how many trailing bars to retain from the provider response.
// Zero means keep everything.
func (p Period) KeepBars() int {
	if p == Period1D {
		return 2
	}
	return 0
}

func (p Period) String() string { return string(p) }
