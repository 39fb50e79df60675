package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/transport/http/dto"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/cache"
)

// Refresher は再計算ジョブを起動するユースケースのインターフェースです。
type Refresher interface {
	StartFullUpdate(ctx context.Context) (string, error)
	UpdateSingleTicker(ctx context.Context, code string) error
	Status() usecase.Status
}

// CacheStats はキャッシュ統計の取得元です。
type CacheStats interface {
	Stats(ctx context.Context) cache.Stats
}

// RefreshHandler は手動更新と稼働状況のエンドポイントを処理します。
type RefreshHandler struct {
	// base はバックグラウンド実行に渡すコンテキストです。リクエスト終了後も生存します。
	base   context.Context
	uc     Refresher
	cache  CacheStats
	logger zerolog.Logger
}

// NewRefreshHandler は新しい RefreshHandler を作成します。
// base はサーバー終了時にキャンセルされるコンテキストを渡します。
func NewRefreshHandler(base context.Context, uc Refresher, stats CacheStats, logger zerolog.Logger) *RefreshHandler {
	return &RefreshHandler{base: base, uc: uc, cache: stats, logger: logger}
}

// RefreshAll は POST /api/refresh を処理します。
// 全件更新をバックグラウンドで開始し202を返します。実行中なら409です。
func (h *RefreshHandler) RefreshAll(c *gin.Context) {
	runID, err := h.uc.StartFullUpdate(h.base)
	if err != nil {
		if errors.Is(err, usecase.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, dto.ErrorRes{Error: "update already in progress"})
			return
		}
		h.logger.Error().Err(err).Msg("failed to start full update")
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusAccepted, dto.RefreshRes{Status: "started", RunID: runID})
}

// RefreshTicker は POST /api/refresh/:code を処理します。
func (h *RefreshHandler) RefreshTicker(c *gin.Context) {
	code := c.Param("code")
	err := h.uc.UpdateSingleTicker(c.Request.Context(), code)
	switch {
	case err == nil:
		ticker, _ := mdentity.NormalizeTicker(code)
		c.JSON(http.StatusOK, dto.TickerRefreshRes{Status: "updated", Ticker: ticker})
	case errors.Is(err, usecase.ErrTickerNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorRes{Error: "ticker not found"})
	case errors.Is(err, usecase.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, dto.ErrorRes{Error: "update already in progress"})
	default:
		h.logger.Error().Err(err).Str("code", code).Msg("single ticker update failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "update failed"})
	}
}

// Status は GET /api/status を処理します。
func (h *RefreshHandler) Status(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.StatusRes{
		Scheduler: h.uc.Status(),
		Cache:     h.cache.Stats(c.Request.Context()),
	})
}
