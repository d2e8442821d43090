// Package redisdb bootstraps the optional Redis client backing the
// embedding cache.
package redisdb

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mnemograph/mnemograph-backend/internal/platform/envutil"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
)

// NewFromEnv connects to REDIS_ADDR and verifies the connection with a
// ping. An empty REDIS_ADDR returns (nil, nil): the cache layer treats a
// nil client as disabled.
func NewFromEnv(log *logger.Logger) (*goredis.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("redisdb: logger required")
	}

	addr := envutil.Str("REDIS_ADDR", "")
	if addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.Str("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redisdb: ping: %w", err)
	}

	log.Info("redis connected", "addr", addr)
	return rdb, nil
}
