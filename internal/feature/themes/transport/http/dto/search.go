// Package dto defines data transfer objects for the themes HTTP API.
package dto

import "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/usecase"

// SearchReq は検索エンドポイントのクエリパラメータです。
type SearchReq struct {
	Q     string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// StockSearchRes is the /api/search/stocks response.
type StockSearchRes struct {
	Query   string             `json:"query"`
	Total   int                `json:"total"`
	Results []usecase.StockHit `json:"results"`
}

// ThemeSearchRes is the /api/search/themes response.
type ThemeSearchRes struct {
	Query   string             `json:"query"`
	Total   int                `json:"total"`
	Results []usecase.ThemeHit `json:"results"`
}

// SearchAllRes groups both result kinds for the omni-search box.
type SearchAllRes struct {
	Query       string             `json:"query"`
	Stocks      []usecase.StockHit `json:"stocks"`
	Themes      []usecase.ThemeHit `json:"themes"`
	TotalStocks int                `json:"total_stocks"`
	TotalThemes int                `json:"total_themes"`
}

// ErrorRes is the common error body.
type ErrorRes struct {
	Error string `json:"error"`
}
