package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
)

// Cached wraps an Embedder with a Redis lookaside cache keyed by a hash of
// the input text. Cache failures degrade to the base embedder; they are
// logged, never surfaced.
type Cached struct {
	base Embedder
	rdb  *redis.Client
	ttl  time.Duration
	log  *logger.Logger
}

func NewCached(base Embedder, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *Cached {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cached{base: base, rdb: rdb, ttl: ttl, log: log.With("service", "EmbeddingCache")}
}

func (c *Cached) Dimension() int { return c.base.Dimension() }

func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.rdb == nil {
		return c.base.Embed(ctx, text)
	}
	key := c.key(text)
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var vec []float64
		if err := json.Unmarshal(raw, &vec); err == nil && len(vec) == c.base.Dimension() {
			return vec, nil
		}
		c.log.Warn("dropping undecodable cache entry", "key", key)
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		c.log.Warn("embedding cache read failed", "error", err)
	}

	vec, err := c.base.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(vec); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.Warn("embedding cache write failed", "error", err)
		}
	}
	return vec, nil
}

func (c *Cached) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%d:%x", c.base.Dimension(), sum)
}
