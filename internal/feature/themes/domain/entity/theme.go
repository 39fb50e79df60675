// Package entity defines the theme registry models.
package entity

import "errors"

// ErrThemeNotFound is returned when a theme id is not registered.
var ErrThemeNotFound = errors.New("theme not found")

// StockInfo is the display metadata of a ticker within a theme.
type StockInfo struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Theme is a curated group of tickers.
// Tickers are canonical (e.g. "7203.T"), unique and in registry order.
type Theme struct {
	ID          string
	Name        string
	Description string
	Tickers     []string
	Stocks      map[string]StockInfo
}

// Contains reports whether ticker is a member of the theme.
func (t Theme) Contains(ticker string) bool {
	for _, tk := range t.Tickers {
		if tk == ticker {
			return true
		}
	}
	return false
}

// StockName は銘柄名を返します。未登録の場合はティッカーをそのまま返します。
func (t Theme) StockName(ticker string) string {
	if s, ok := t.Stocks[ticker]; ok && s.Name != "" {
		return s.Name
	}
	return ticker
}

// StockDescription は銘柄の説明を返します。未登録の場合は空文字です。
func (t Theme) StockDescription(ticker string) string {
	return t.Stocks[ticker].Description
}
