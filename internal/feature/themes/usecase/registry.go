// Package usecase implements lookups over the theme registry.
package usecase

import (
	"fmt"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
)

// ThemeSource abstracts where theme definitions come from.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type ThemeSource interface {
	LoadThemes() ([]entity.Theme, error)
}

// TickerInfo is a ticker resolved against the registry.
type TickerInfo struct {
	Ticker    string
	ThemeID   string
	ThemeName string
	entity.StockInfo
}

// Registry is the read-only theme → ticker index.
// It is built once at startup and safe for concurrent reads.
type Registry struct {
	themes  []entity.Theme
	byID    map[string]int
	tickers []string
	owners  map[string][]int
}

// LoadRegistry は ThemeSource からテーマを読み込み Registry を生成します。
func LoadRegistry(src ThemeSource) (*Registry, error) {
	themes, err := src.LoadThemes()
	if err != nil {
		return nil, fmt.Errorf("load themes: %w", err)
	}
	return NewRegistry(themes), nil
}

// NewRegistry は与えられたテーマ一覧からインデックスを構築します。
func NewRegistry(themes []entity.Theme) *Registry {
	r := &Registry{
		themes: themes,
		byID:   make(map[string]int, len(themes)),
		owners: make(map[string][]int),
	}
	var all []string
	for i, th := range themes {
		r.byID[th.ID] = i
		for _, tk := range th.Tickers {
			r.owners[tk] = append(r.owners[tk], i)
			all = append(all, tk)
		}
	}
	r.tickers = mdentity.Unique(all)
	return r
}

// Themes returns every theme in registry order.
func (r *Registry) Themes() []entity.Theme { return r.themes }

// Len returns the number of themes.
func (r *Registry) Len() int { return len(r.themes) }

// Theme looks up a theme by id.
func (r *Registry) Theme(id string) (entity.Theme, error) {
	i, ok := r.byID[id]
	if !ok {
		return entity.Theme{}, fmt.Errorf("%s: %w", id, entity.ErrThemeNotFound)
	}
	return r.themes[i], nil
}

// AllTickers returns the unique ticker universe in first-seen order.
func (r *Registry) AllTickers() []string { return r.tickers }

// ThemesContaining returns the themes that list ticker, in registry order.
func (r *Registry) ThemesContaining(ticker string) []entity.Theme {
	idx := r.owners[ticker]
	out := make([]entity.Theme, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.themes[i])
	}
	return out
}

// Lookup resolves ticker to its first containing theme and display info.
func (r *Registry) Lookup(ticker string) (TickerInfo, bool) {
	idx := r.owners[ticker]
	if len(idx) == 0 {
		return TickerInfo{}, false
	}
	th := r.themes[idx[0]]
	return TickerInfo{
		Ticker:    ticker,
		ThemeID:   th.ID,
		ThemeName: th.Name,
		StockInfo: entity.StockInfo{Name: th.StockName(ticker), Description: th.StockDescription(ticker)},
	}, true
}
