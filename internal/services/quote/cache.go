package quote

import (
	"context"
	"time"

	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// Cache holds recent provider quotes in a local TinyLFU cache, optionally
// backed by Redis so several server instances share one quote budget.
type Cache struct {
	cache  *cache.Cache
	redis  *redis.Client
	ttl    time.Duration
	logger *common.Logger
}

// NewCache builds the quote cache from config. An empty redis address keeps
// the cache in-process only.
func NewCache(config common.CacheConfig, logger *common.Logger) *Cache {
	ttl := config.GetQuoteTTL()
	size := config.LocalSize
	if size <= 0 {
		size = 1000
	}

	opts := &cache.Options{
		LocalCache: cache.NewTinyLFU(size, ttl),
	}

	c := &Cache{ttl: ttl, logger: logger}
	if config.RedisAddress != "" {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     config.RedisAddress,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		opts.Redis = c.redis
		logger.Info().Str("address", config.RedisAddress).Msg("Quote cache backed by Redis")
	}

	c.cache = cache.New(opts)
	return c
}

func cacheKey(symbol string) string {
	return "quote:" + symbol
}

// Get returns a cached quote, reporting false on a miss or cache error.
func (c *Cache) Get(ctx context.Context, symbol string) (*models.Quote, bool) {
	var q models.Quote
	if err := c.cache.Get(ctx, cacheKey(symbol), &q); err != nil {
		if err != cache.ErrCacheMiss {
			c.logger.Debug().Err(err).Str("symbol", symbol).Msg("Quote cache read failed")
		}
		return nil, false
	}
	return &q, true
}

// Set stores a provider quote for the configured TTL.
func (c *Cache) Set(ctx context.Context, q *models.Quote) {
	if err := c.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   cacheKey(q.Symbol),
		Value: q,
		TTL:   c.ttl,
	}); err != nil {
		c.logger.Debug().Err(err).Str("symbol", q.Symbol).Msg("Quote cache write failed")
	}
}

// Close releases the Redis connection, if any.
func (c *Cache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}
