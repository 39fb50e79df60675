package entity

import mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"

// HistoryPoint is one day of a theme's cumulative return, in percent.
type HistoryPoint struct {
	Date             string  `json:"date"`
	CumulativeReturn float64 `json:"cumulative_return"`
}

// ThemeHistory はテーマの累積騰落率の推移（チャート用）です。
type ThemeHistory struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Period  string         `json:"period"`
	History []HistoryPoint `json:"history"`
}

// SectorStock is a theme member on the sector heatmap.
type SectorStock struct {
	Code              string                     `json:"code"`
	Name              string                     `json:"name"`
	ChangePercent     float64                    `json:"change_percent"`
	MarketCap         float64                    `json:"market_cap"`
	MarketCapCategory mdentity.MarketCapCategory `json:"market_cap_category"`
}

// Sector はテーマ単位のヒートマップ行です。
type Sector struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	AverageChange float64       `json:"average_change"`
	Stocks        []SectorStock `json:"stocks"`
	StockCount    int           `json:"stock_count"`
}

// SectorHeatmap lists every theme ordered by average change, highest first.
type SectorHeatmap struct {
	Period       string   `json:"period"`
	Sectors      []Sector `json:"sectors"`
	TotalSectors int      `json:"total_sectors"`
	LastUpdated  *string  `json:"last_updated"`
}
