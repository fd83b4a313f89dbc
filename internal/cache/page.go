package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"scribe/internal/middleware"
	"scribe/internal/observability"

	"github.com/gofiber/fiber/v2"
	fibercache "github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/redis/go-redis/v9"
)

const (
	// IndexKeyPrefix is the fixed key under which the home feed is memoized.
	IndexKeyPrefix = "index_page"
	// Namespace prefixes every page cache key stored in Redis.
	Namespace = "page:"
)

// PageCache memoizes whole rendered pages for a fixed window regardless of
// who asked for them. Entries are only dropped by expiry or Invalidate.
type PageCache struct {
	storage Storage
	ttl     time.Duration
}

// NewPageCache stores pages in Redis when rdb is non-nil and in process memory otherwise.
func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	var storage Storage
	if rdb != nil {
		storage = NewRedisStorage(rdb, Namespace)
	} else {
		storage = NewMemoryStorage()
	}
	return &PageCache{storage: storage, ttl: ttl}
}

// Middleware caches GET responses under IndexKeyPrefix plus the page number.
// A zero window disables caching. Client cache directives are ignored so
// every request inside the window gets the same snapshot.
func (p *PageCache) Middleware() fiber.Handler {
	if p.ttl <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	handler := fibercache.New(fibercache.Config{
		Expiration:   p.ttl,
		CacheHeader:  "X-Cache",
		KeyGenerator: IndexKey,
		Storage:      p.storage,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodGet
		},
	})
	return func(c *fiber.Ctx) error {
		c.Request().Header.Del(fiber.HeaderCacheControl)
		c.Request().Header.Del(fiber.HeaderPragma)
		return handler(c)
	}
}

// IndexKey is the cache key of the requested home feed page. The raw page
// value is normalized the way the feed resolves it: non-integers share the
// first page's key and values below one share the "last" key.
func IndexKey(c *fiber.Ctx) string {
	return IndexKeyPrefix + ":" + normalizePage(c.Query("page"))
}

func normalizePage(raw string) string {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		return "1"
	case n < 1:
		return "last"
	default:
		return strconv.Itoa(n)
	}
}

// Invalidate drops every memoized home feed page.
func (p *PageCache) Invalidate(ctx context.Context) error {
	n, err := p.storage.DeletePrefix(ctx, IndexKeyPrefix)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "page cache invalidation failed", "error", err)
		return err
	}
	observability.PageCacheInvalidations.Inc()
	middleware.Logger.InfoContext(ctx, "page cache invalidated", "keys", n)
	return nil
}
