// Package dto defines data transfer objects for the snapshot HTTP API.
package dto

import (
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/cache"
)

// RefreshRes is returned when a full update has been started.
type RefreshRes struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
}

// TickerRefreshRes is returned after a single-ticker update.
type TickerRefreshRes struct {
	Status string `json:"status"`
	Ticker string `json:"ticker"`
}

// StatusRes is the /api/status response.
type StatusRes struct {
	Scheduler usecase.Status `json:"scheduler"`
	Cache     cache.Stats    `json:"cache"`
}

// ErrorRes is the common error body.
type ErrorRes struct {
	Error string `json:"error"`
}
