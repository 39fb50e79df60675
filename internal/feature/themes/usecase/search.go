package usecase

import (
	"strings"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
)

// Search limits. A limit outside (0, max] falls back to the default.
const (
	DefaultStockLimit = 20
	MaxStockLimit     = 100
	DefaultThemeLimit = 10
	MaxThemeLimit     = 50
)

// StockHit is a ticker matched by SearchStocks.
type StockHit struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	ThemeID   string `json:"theme_id"`
	ThemeName string `json:"theme_name"`
}

// ThemeHit is a theme matched by SearchThemes.
type ThemeHit struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StockCount  int    `json:"stock_count"`
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 || limit > max {
		return def
	}
	return limit
}

// SearchStocks は銘柄コードまたは銘柄名の部分一致（大文字小文字を区別しない）で検索します。
// 同じ銘柄は最初に見つかったテーマで1件だけ返します。
func (r *Registry) SearchStocks(q string, limit int) []StockHit {
	limit = clampLimit(limit, DefaultStockLimit, MaxStockLimit)
	q = strings.ToLower(strings.TrimSpace(q))
	out := []StockHit{}
	if q == "" {
		return out
	}

	seen := make(map[string]struct{})
	for _, th := range r.themes {
		for _, tk := range th.Tickers {
			if _, ok := seen[tk]; ok {
				continue
			}
			name := th.StockName(tk)
			if !strings.Contains(strings.ToLower(tk), q) && !strings.Contains(strings.ToLower(name), q) {
				continue
			}
			seen[tk] = struct{}{}
			out = append(out, StockHit{Ticker: tk, Name: name, ThemeID: th.ID, ThemeName: th.Name})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// SearchThemes は id・名前・説明の部分一致でテーマを検索します。
func (r *Registry) SearchThemes(q string, limit int) []ThemeHit {
	limit = clampLimit(limit, DefaultThemeLimit, MaxThemeLimit)
	q = strings.ToLower(strings.TrimSpace(q))
	out := []ThemeHit{}
	if q == "" {
		return out
	}

	for _, th := range r.themes {
		if !matchTheme(th, q) {
			continue
		}
		out = append(out, ThemeHit{ID: th.ID, Name: th.Name, Description: th.Description, StockCount: len(th.Tickers)})
		if len(out) >= limit {
			break
		}
	}
	return out
}

func matchTheme(th entity.Theme, q string) bool {
	return strings.Contains(strings.ToLower(th.ID), q) ||
		strings.Contains(strings.ToLower(th.Name), q) ||
		strings.Contains(strings.ToLower(th.Description), q)
}
