package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/transport/http/dto"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/usecase"
)

// Searcher は検索ユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type Searcher interface {
	SearchStocks(q string, limit int) []usecase.StockHit
	SearchThemes(q string, limit int) []usecase.ThemeHit
}

// SearchHandler は銘柄・テーマ検索のHTTPリクエストを処理します。
type SearchHandler struct {
	uc     Searcher
	logger zerolog.Logger
}

// NewSearchHandler は新しい SearchHandler を作成します。
func NewSearchHandler(uc Searcher, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{uc: uc, logger: logger}
}

func (h *SearchHandler) bind(c *gin.Context) (dto.SearchReq, bool) {
	var req dto.SearchReq
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Debug().Err(err).Str("path", c.FullPath()).Msg("search validation failed")
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: "invalid query"})
		return req, false
	}
	return req, true
}

// Stocks は銘柄コード・銘柄名で検索します。
// q が無い、または limit が範囲外の場合は400を返します。
func (h *SearchHandler) Stocks(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	hits := h.uc.SearchStocks(req.Q, req.Limit)
	c.JSON(http.StatusOK, dto.StockSearchRes{Query: req.Q, Total: len(hits), Results: hits})
}

// Themes はテーマ名・説明で検索します。
func (h *SearchHandler) Themes(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	hits := h.uc.SearchThemes(req.Q, req.Limit)
	c.JSON(http.StatusOK, dto.ThemeSearchRes{Query: req.Q, Total: len(hits), Results: hits})
}

// All は銘柄とテーマを同時に検索します。
func (h *SearchHandler) All(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	stocks := h.uc.SearchStocks(req.Q, req.Limit)
	themes := h.uc.SearchThemes(req.Q, req.Limit)
	c.JSON(http.StatusOK, dto.SearchAllRes{
		Query:       req.Q,
		Stocks:      stocks,
		Themes:      themes,
		TotalStocks: len(stocks),
		TotalThemes: len(themes),
	})
}
