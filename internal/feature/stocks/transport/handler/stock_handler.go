// Package handler exposes the on-demand stock endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/stocks/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/stocks/usecase"
)

// StockViews は銘柄ビューのユースケースインターフェースです。
type StockViews interface {
	Detail(ctx context.Context, code string, period mdentity.Period) (entity.StockDetail, error)
	Chart(ctx context.Context, code string, period mdentity.Period) (entity.ChartData, error)
	Index(ctx context.Context, period mdentity.Period) entity.IndexSummary
}

// StockHandler は銘柄詳細・チャート・日経225のHTTPリクエストを処理します。
type StockHandler struct {
	uc     StockViews
	logger zerolog.Logger
}

// NewStockHandler は新しい StockHandler を作成します。
func NewStockHandler(uc StockViews, logger zerolog.Logger) *StockHandler {
	return &StockHandler{uc: uc, logger: logger}
}

type errorRes struct {
	Error string `json:"error"`
}

func (h *StockHandler) period(c *gin.Context) (mdentity.Period, bool) {
	p, err := mdentity.ParsePeriod(c.DefaultQuery("period", string(mdentity.Period1M)))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorRes{Error: "invalid period"})
		return "", false
	}
	return p, true
}

// Detail は GET /api/stocks/:code を処理します。
func (h *StockHandler) Detail(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	res, err := h.uc.Detail(c.Request.Context(), c.Param("code"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Chart は GET /api/stocks/:code/chart を処理します。
func (h *StockHandler) Chart(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	res, err := h.uc.Chart(c.Request.Context(), c.Param("code"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Index は GET /api/nikkei225 を処理します。取得失敗時も200で error を含めて返します。
func (h *StockHandler) Index(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.uc.Index(c.Request.Context(), p))
}

func (h *StockHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, usecase.ErrStockNotFound) {
		c.JSON(http.StatusNotFound, errorRes{Error: "stock not found: " + c.Param("code")})
		return
	}
	h.logger.Error().Err(err).Str("code", c.Param("code")).Msg("stock view failed")
	c.JSON(http.StatusInternalServerError, errorRes{Error: "internal server error"})
}
