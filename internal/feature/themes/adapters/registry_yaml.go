// Package adapters はテーマ定義ファイルの読み込みを提供します。
package adapters

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/usecase"
)

type registryFile struct {
	Themes []themeRecord `yaml:"themes"`
}

type themeRecord struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Stocks      []stockRecord `yaml:"stocks"`
}

type stockRecord struct {
	Ticker      string `yaml:"ticker"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// YAMLRegistry はThemeSourceインターフェースのYAMLファイル実装です。
type YAMLRegistry struct {
	path string
}

var _ usecase.ThemeSource = (*YAMLRegistry)(nil)

// NewYAMLRegistry は指定パスのYAMLを読むThemeSourceを生成します。
func NewYAMLRegistry(path string) *YAMLRegistry {
	return &YAMLRegistry{path: path}
}

// LoadThemes はファイルを読み込み、テーマ一覧を定義順で返します。
func (r *YAMLRegistry) LoadThemes() ([]entity.Theme, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read theme registry: %w", err)
	}
	themes, err := ParseThemes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	return themes, nil
}

// ParseThemes decodes a registry document. Ticker codes are normalized
// ("7203" and "７２０３" become "7203.T") and duplicates within a theme are
// dropped, keeping the first entry.
func ParseThemes(data []byte) ([]entity.Theme, error) {
	var f registryFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse theme registry: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Themes))
	out := make([]entity.Theme, 0, len(f.Themes))
	for i, rec := range f.Themes {
		if rec.ID == "" {
			return nil, fmt.Errorf("theme #%d: missing id", i+1)
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("theme %q: duplicate id", rec.ID)
		}
		seen[rec.ID] = struct{}{}

		th := entity.Theme{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			Tickers:     make([]string, 0, len(rec.Stocks)),
			Stocks:      make(map[string]entity.StockInfo, len(rec.Stocks)),
		}
		if th.Name == "" {
			th.Name = rec.ID
		}
		for _, s := range rec.Stocks {
			ticker, err := mdentity.NormalizeTicker(s.Ticker)
			if err != nil {
				return nil, fmt.Errorf("theme %q: %w", rec.ID, err)
			}
			if _, dup := th.Stocks[ticker]; dup {
				continue
			}
			th.Tickers = append(th.Tickers, ticker)
			th.Stocks[ticker] = entity.StockInfo{Name: s.Name, Description: s.Description}
		}
		out = append(out, th)
	}
	return out, nil
}
