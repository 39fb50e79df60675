// Package entity defines the domain models for the marketdata feature.
package entity

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day key used to align series by date.
const DateLayout = "2006-01-02"

// Tokyo is the exchange timezone. Falls back to a fixed +09:00 zone when
// the tz database is unavailable.
var Tokyo = loadTokyo()

func loadTokyo() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// DayKey は parts を "|" で連結し、日本時間の日付を末尾に付けたキーを返します。
// 日付が変わるとキーも変わるため、前日のエントリは自然に参照されなくなります。
func DayKey(now time.Time, parts ...string) string {
	return strings.Join(append(parts, now.In(Tokyo).Format(DateLayout)), "|")
}

// TradingDay truncates t to midnight of its Tokyo calendar day.
func TradingDay(t time.Time) time.Time {
	t = t.In(Tokyo)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Tokyo)
}

// Candle is one daily OHLCV bar.
type Candle struct {
	Time   time.Time `json:"date"`   // 取引日 (Asia/Tokyo)
	Open   float64   `json:"open"`   // 始値
	High   float64   `json:"high"`   // 高値
	Low    float64   `json:"low"`    // 安値
	Close  float64   `json:"close"`  // 終値
	Volume int64     `json:"volume"` // 出来高
}

// Date returns the bar's calendar day as YYYY-MM-DD.
func (c Candle) Date() string {
	return c.Time.Format(DateLayout)
}

// PriceSeries is an ordered run of bars with strictly increasing dates.
// Gaps (holidays, halts) are not filled.
type PriceSeries []Candle

// Closes returns the close prices in order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Highs returns the high prices in order.
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

// Lows returns the low prices in order.
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// Tail returns the last n bars (or the whole series when shorter).
func (s PriceSeries) Tail(n int) PriceSeries {
	if n <= 0 {
		return PriceSeries{}
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Last returns the most recent bar.
func (s PriceSeries) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}
