package entity

import (
	"errors"
	"strings"

	"golang.org/x/text/width"
)

// TokyoSuffix is the exchange suffix for Tokyo Stock Exchange listings.
const TokyoSuffix = ".T"

// ErrInvalidTicker is returned when a code cannot be normalized.
var ErrInvalidTicker = errors.New("invalid ticker")

// NormalizeTicker converts user input to the canonical exchange-suffixed form.
// "7203", "7203.t", "７２０３" and " 7203.T " all become "7203.T".
// Index symbols (leading "^") and codes that already carry a suffix are kept.
func NormalizeTicker(code string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(width.Narrow.String(code)))
	if s == "" {
		return "", ErrInvalidTicker
	}
	if strings.ContainsAny(s, " /\\") {
		return "", ErrInvalidTicker
	}
	if strings.HasPrefix(s, "^") || strings.Contains(s, ".") {
		return s, nil
	}
	return s + TokyoSuffix, nil
}

// ShortCode strips the Tokyo suffix: "7203.T" → "7203".
func ShortCode(ticker string) string {
	return strings.TrimSuffix(ticker, TokyoSuffix)
}

// SafeFileKey turns a ticker into a filename fragment: "7203.T" → "7203_T".
func SafeFileKey(ticker string) string {
	return strings.ReplaceAll(ticker, ".", "_")
}

// Unique returns tickers with duplicates removed, keeping first-seen order.
func Unique(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
