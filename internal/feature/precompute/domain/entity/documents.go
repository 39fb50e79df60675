// Package entity defines the precomputed snapshot documents.
package entity

import (
	"errors"
	"time"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/analytics/calculator"
	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
)

// ErrSnapshotNotFound is returned when a snapshot document has not been written yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// GeneratedAtLayout is the timestamp layout of generated_at.
const GeneratedAtLayout = time.RFC3339

// TopStock is one of a theme's three best movers.
type TopStock struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	ChangePercent float64 `json:"change_percent"`
}

// ThemeSummary is one row of the ranking document. Error is set when the
// theme could not be computed; the numeric fields then hold defaults.
type ThemeSummary struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	ChangePercent   float64              `json:"change_percent"`
	ChangePercent1D *float64             `json:"change_percent_1d"`
	StockCount      int                  `json:"stock_count"`
	TopStocks       []TopStock           `json:"top_stocks"`
	Sparkline       calculator.Sparkline `json:"sparkline"`
	Error           string               `json:"error,omitempty"`
}

// RankingDocument is themes_<period>.json.
type RankingDocument struct {
	Period      string         `json:"period"`
	Themes      []ThemeSummary `json:"themes"`
	Total       int            `json:"total"`
	LastUpdated *string        `json:"last_updated"`
	GeneratedAt string         `json:"generated_at"`
}

// StockDetail is a member row of the theme detail document.
type StockDetail struct {
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	ChangePercent   float64  `json:"change_percent"`
	ChangePercent1D *float64 `json:"change_percent_1d"`
	Beta            *float64 `json:"beta"`
	Alpha           *float64 `json:"alpha"`
	RSquared        *float64 `json:"r_squared"`
	mdentity.MarketCap
	Sparkline calculator.Sparkline `json:"sparkline"`
}

// ThemeDetailDocument is theme_<id>_<period>.json.
type ThemeDetailDocument struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	ChangePercent   float64              `json:"change_percent"`
	ChangePercent1D *float64             `json:"change_percent_1d"`
	StockCount      int                  `json:"stock_count"`
	Sparkline       calculator.Sparkline `json:"sparkline"`
	Stocks          []StockDetail        `json:"stocks"`
	Period          string               `json:"period"`
	LastUpdated     *string              `json:"last_updated"`
	GeneratedAt     string               `json:"generated_at"`
	Error           string               `json:"error,omitempty"`
}

// HeatmapStock is a ticker placed in a market-cap bucket.
type HeatmapStock struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	ThemeID       string  `json:"theme_id"`
	ThemeName     string  `json:"theme_name"`
	ChangePercent float64 `json:"change_percent"`
	mdentity.MarketCap
}

// HeatmapCategory is one market-cap bucket.
type HeatmapCategory struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Threshold string         `json:"threshold"`
	Stocks    []HeatmapStock `json:"stocks"`
	Count     int            `json:"count"`
}

// NewHeatmapCategory returns an empty bucket for c.
func NewHeatmapCategory(c mdentity.MarketCapCategory) HeatmapCategory {
	return HeatmapCategory{ID: c.ID, Label: c.Label, Threshold: c.Threshold, Stocks: []HeatmapStock{}}
}

// HeatmapCategories keeps the buckets in display order.
type HeatmapCategories struct {
	Mega    HeatmapCategory `json:"mega"`
	Large   HeatmapCategory `json:"large"`
	Mid     HeatmapCategory `json:"mid"`
	Small   HeatmapCategory `json:"small"`
	Micro   HeatmapCategory `json:"micro"`
	Unknown HeatmapCategory `json:"unknown"`
}

// ByID returns the bucket for a category id; unrecognised ids map to unknown.
func (h *HeatmapCategories) ByID(id string) *HeatmapCategory {
	switch id {
	case mdentity.CategoryMega.ID:
		return &h.Mega
	case mdentity.CategoryLarge.ID:
		return &h.Large
	case mdentity.CategoryMid.ID:
		return &h.Mid
	case mdentity.CategorySmall.ID:
		return &h.Small
	case mdentity.CategoryMicro.ID:
		return &h.Micro
	default:
		return &h.Unknown
	}
}

// All returns pointers to every bucket in display order.
func (h *HeatmapCategories) All() []*HeatmapCategory {
	return []*HeatmapCategory{&h.Mega, &h.Large, &h.Mid, &h.Small, &h.Micro, &h.Unknown}
}

// HeatmapDocument is heatmap_<period>.json.
type HeatmapDocument struct {
	Period      string            `json:"period"`
	Categories  HeatmapCategories `json:"categories"`
	LastUpdated *string           `json:"last_updated"`
	GeneratedAt string            `json:"generated_at"`
}

// File names of the snapshot documents.
func RankingFile(period mdentity.Period) string { return "themes_" + string(period) + ".json" }

func DetailFile(themeID string, period mdentity.Period) string {
	return "theme_" + themeID + "_" + string(period) + ".json"
}

func HeatmapFile(period mdentity.Period) string { return "heatmap_" + string(period) + ".json" }
