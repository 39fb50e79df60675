package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
)

// mockThemeViewer はThemeViewerインターフェースのモック実装です。
type mockThemeViewer struct {
	HistoryFunc       func(ctx context.Context, themeID string, period mdentity.Period) (entity.ThemeHistory, error)
	SectorHeatmapFunc func(ctx context.Context, period mdentity.Period) (entity.SectorHeatmap, error)
}

func (m *mockThemeViewer) History(ctx context.Context, themeID string, period mdentity.Period) (entity.ThemeHistory, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, themeID, period)
	}
	return entity.ThemeHistory{ID: themeID, Name: "半導体", Period: string(period), History: []entity.HistoryPoint{}}, nil
}

func (m *mockThemeViewer) SectorHeatmap(ctx context.Context, period mdentity.Period) (entity.SectorHeatmap, error) {
	if m.SectorHeatmapFunc != nil {
		return m.SectorHeatmapFunc(ctx, period)
	}
	return entity.SectorHeatmap{Period: string(period), Sectors: []entity.Sector{}}, nil
}

func newThemeRouter(m *mockThemeViewer) *gin.Engine {
	h := NewThemeHandler(m, zerolog.Nop())
	r := gin.New()
	r.GET("/api/themes/:id/history", h.History)
	r.GET("/api/heatmap/sector", h.SectorHeatmap)
	return r
}

func TestThemeHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	notFound := func(_ context.Context, id string, _ mdentity.Period) (entity.ThemeHistory, error) {
		return entity.ThemeHistory{}, fmt.Errorf("%s: %w", id, entity.ErrThemeNotFound)
	}
	broken := func(context.Context, mdentity.Period) (entity.SectorHeatmap, error) {
		return entity.SectorHeatmap{}, errors.New("boom")
	}

	tests := []struct {
		name       string
		mock       *mockThemeViewer
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name: "history default period", mock: &mockThemeViewer{}, path: "/api/themes/semiconductor/history",
			wantStatus: http.StatusOK, wantBody: `{"id":"semiconductor","name":"半導体","period":"1mo","history":[]}`,
		},
		{
			name: "history unknown theme", mock: &mockThemeViewer{HistoryFunc: notFound}, path: "/api/themes/nope/history",
			wantStatus: http.StatusNotFound, wantBody: `{"error":"theme not found: nope"}`,
		},
		{
			name: "history bad period", mock: &mockThemeViewer{}, path: "/api/themes/semiconductor/history?period=2w",
			wantStatus: http.StatusBadRequest, wantBody: `{"error":"invalid period"}`,
		},
		{
			name: "sector heatmap", mock: &mockThemeViewer{}, path: "/api/heatmap/sector?period=5d",
			wantStatus: http.StatusOK, wantBody: `{"period":"5d","sectors":[],"total_sectors":0,"last_updated":null}`,
		},
		{
			name: "sector heatmap failure", mock: &mockThemeViewer{SectorHeatmapFunc: broken}, path: "/api/heatmap/sector",
			wantStatus: http.StatusInternalServerError, wantBody: `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newThemeRouter(tt.mock).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
