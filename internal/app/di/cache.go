package di

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/cache"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/config"
	infraredis "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/redis"
)

// NewResultCache creates the response cache.
// If Redis is available, it is used as the shared tier.
// Otherwise, the cache runs in memory only.
func NewResultCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*cache.ResultCache, *redis.Client) {
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, running with in-memory cache")
		rdb = nil
	}
	return cache.NewResultCache(rdb, cfg.ResultCacheTTL, logger), rdb
}
