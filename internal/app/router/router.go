// Package router wires HTTP handlers and middleware into a gin engine.
package router

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	pchandler "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/transport/handler"
	sthandler "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/stocks/transport/handler"
	thhandler "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/transport/handler"
	healthhandler "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/http/handler"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/http/middleware"
)

// Handlers はルーターに登録するハンドラ一式です。
type Handlers struct {
	Health    *healthhandler.HealthHandler
	Search    *thhandler.SearchHandler
	Themes    *thhandler.ThemeHandler
	Snapshots *pchandler.SnapshotHandler
	Refresh   *pchandler.RefreshHandler
	Stocks    *sthandler.StockHandler
}

// Options はミドルウェアの設定です。
type Options struct {
	CORSOrigins []string
	RateLimiter *middleware.IPRateLimiter // nil disables rate limiting
}

// NewRouter はルーティングを設定した gin.Engine を返します。
func NewRouter(h Handlers, opts Options, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	// 導通確認用（レート制限の対象外）
	r.GET("/healthz", h.Health.Health)
	r.GET("/readyz", h.Health.Ready)

	api := r.Group("/api")
	if opts.RateLimiter != nil {
		api.Use(middleware.RateLimit(opts.RateLimiter, logger))
	}
	{
		// 事前計算済みスナップショット
		api.GET("/themes", h.Snapshots.Ranking)
		api.GET("/themes/:id", h.Snapshots.Detail)
		api.GET("/heatmap", h.Snapshots.Heatmap)

		// テーマ単位のオンデマンド集計
		api.GET("/themes/:id/history", h.Themes.History)
		api.GET("/heatmap/sector", h.Themes.SectorHeatmap)

		// 検索
		api.GET("/search/stocks", h.Search.Stocks)
		api.GET("/search/themes", h.Search.Themes)
		api.GET("/search/all", h.Search.All)

		// オンデマンド計算
		api.GET("/stocks/:code", h.Stocks.Detail)
		api.GET("/stocks/:code/chart", h.Stocks.Chart)
		api.GET("/nikkei225", h.Stocks.Index)

		// 更新・状態
		api.POST("/refresh", h.Refresh.RefreshAll)
		api.POST("/refresh/:code", h.Refresh.RefreshTicker)
		api.GET("/status", h.Refresh.Status)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
