package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/transport/http/dto"
)

// ThemeViewer はテーマ単位のオンデマンド集計のユースケースインターフェースです。
type ThemeViewer interface {
	History(ctx context.Context, themeID string, period mdentity.Period) (entity.ThemeHistory, error)
	SectorHeatmap(ctx context.Context, period mdentity.Period) (entity.SectorHeatmap, error)
}

// ThemeHandler はテーマ推移とセクターヒートマップのHTTPリクエストを処理します。
type ThemeHandler struct {
	uc     ThemeViewer
	logger zerolog.Logger
}

// NewThemeHandler は新しい ThemeHandler を作成します。
func NewThemeHandler(uc ThemeViewer, logger zerolog.Logger) *ThemeHandler {
	return &ThemeHandler{uc: uc, logger: logger}
}

func (h *ThemeHandler) period(c *gin.Context) (mdentity.Period, bool) {
	p, err := mdentity.ParsePeriod(c.DefaultQuery("period", string(mdentity.Period1M)))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: "invalid period"})
		return "", false
	}
	return p, true
}

// History は GET /api/themes/:id/history を処理します。
func (h *ThemeHandler) History(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	id := c.Param("id")
	res, err := h.uc.History(c.Request.Context(), id, p)
	if err != nil {
		if errors.Is(err, entity.ErrThemeNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorRes{Error: "theme not found: " + id})
			return
		}
		h.logger.Error().Err(err).Str("theme", id).Msg("theme history failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// SectorHeatmap は GET /api/heatmap/sector を処理します。
func (h *ThemeHandler) SectorHeatmap(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	res, err := h.uc.SectorHeatmap(c.Request.Context(), p)
	if err != nil {
		h.logger.Error().Err(err).Str("period", string(p)).Msg("sector heatmap failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, res)
}
