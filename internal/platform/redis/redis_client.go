// Package redis builds the optional Redis client for the result cache.
package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/config"
)

const pingTimeout = 3 * time.Second

// Options converts the configured endpoint into client options.
// REDIS_URL wins over REDIS_HOST/REDIS_PORT.
func Options(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opt, nil
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// NewRedisClient は設定から Redis クライアントを生成し、接続を確認します。
// 未設定の場合は (nil, nil) を返し、呼び出し側はメモリキャッシュのみで動作します。
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	if !cfg.Enabled() {
		logger.Info().Msg("redis not configured, using in-memory result cache")
		return nil, nil
	}

	opt, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)

	// 接続確認
	if err := Ping(rdb)(ctx); err != nil {
		logger.Error().Err(err).Str("address", opt.Addr).Msg("redis connection failed")
		_ = rdb.Close()
		return nil, err
	}

	logger.Info().Str("address", opt.Addr).Msg("redis connection successful")
	return rdb, nil
}

// Ping returns a readiness probe for rdb.
func Ping(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		return nil
	}
}
