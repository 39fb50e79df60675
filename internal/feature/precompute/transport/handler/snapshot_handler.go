package handler

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/transport/http/dto"
)

// defaultPeriod is served when the period query is omitted.
const defaultPeriod = mdentity.Period1M

// SnapshotReader は事前計算済み文書の読み出しインターフェースです。
type SnapshotReader interface {
	ReadRanking(period mdentity.Period) ([]byte, error)
	ReadDetail(themeID string, period mdentity.Period) ([]byte, error)
	ReadHeatmap(period mdentity.Period) ([]byte, error)
}

// SnapshotHandler はスナップショット文書をそのまま返します。
// 読み出しは再計算の完了を待ちません。
type SnapshotHandler struct {
	reader SnapshotReader
	logger zerolog.Logger
}

// NewSnapshotHandler は新しい SnapshotHandler を作成します。
func NewSnapshotHandler(reader SnapshotReader, logger zerolog.Logger) *SnapshotHandler {
	return &SnapshotHandler{reader: reader, logger: logger}
}

// Ranking は GET /api/themes を処理します。
func (h *SnapshotHandler) Ranking(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	data, err := h.reader.ReadRanking(p)
	h.respond(c, data, err)
}

// Detail は GET /api/themes/:id を処理します。
func (h *SnapshotHandler) Detail(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	data, err := h.reader.ReadDetail(c.Param("id"), p)
	h.respond(c, data, err)
}

// Heatmap は GET /api/heatmap を処理します。
func (h *SnapshotHandler) Heatmap(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	data, err := h.reader.ReadHeatmap(p)
	h.respond(c, data, err)
}

// period validates the period query against the precomputed periods.
func (h *SnapshotHandler) period(c *gin.Context) (mdentity.Period, bool) {
	raw := c.DefaultQuery("period", string(defaultPeriod))
	p, err := mdentity.ParsePeriod(raw)
	if err == nil && !slices.Contains(mdentity.SnapshotPeriods, p) {
		err = fmt.Errorf("%w: %q is not precomputed", mdentity.ErrUnknownPeriod, raw)
	}
	if err != nil {
		h.logger.Debug().Err(err).Str("period", raw).Msg("invalid period")
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: "invalid period"})
		return "", false
	}
	return p, true
}

func (h *SnapshotHandler) respond(c *gin.Context, data []byte, err error) {
	switch {
	case err == nil:
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
	case errors.Is(err, entity.ErrSnapshotNotFound):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorRes{Error: "data is being prepared"})
	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("failed to read snapshot")
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
	}
}
