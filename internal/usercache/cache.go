// Package usercache keeps the most recently listed users in memory so a detail view can
// be served without another round trip. It is never a source of truth: a miss means the
// caller lists again.
package usercache

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/target/mmk-user-module/internal/domain/model"
	"github.com/target/mmk-user-module/internal/observability/metrics"
	"github.com/target/mmk-user-module/internal/observability/statsd"
)

// DefaultSize bounds the cache when no size is configured.
const DefaultSize = 1024

// Options configures a Cache.
type Options struct {
	Size    int
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// Cache is a bounded LRU of users keyed by numeric id. Safe for concurrent use.
type Cache struct {
	lru     *lru.Cache[int64, model.User]
	metrics statsd.Sink
	logger  *slog.Logger
}

// New creates a cache.
func New(opts Options) *Cache {
	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[int64, model.User](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{lru: c, metrics: opts.Metrics, logger: logger.With("component", "usercache")}
}

// UpsertMany stores every user carrying a usable id and returns how many were skipped.
func (c *Cache) UpsertMany(users []model.User) int {
	skipped := 0
	for i, u := range users {
		id, ok := u.ID.Int64()
		if !ok {
			skipped++
			c.logger.Warn("skipping user without a usable id", "index", i, "id", u.ID.String())
			continue
		}
		c.lru.Add(id, u)
	}
	metrics.EmitCacheSkips(c.metrics, skipped)
	return skipped
}

// Upsert stores one user. It reports false when the user has no usable id.
func (c *Cache) Upsert(u model.User) bool {
	return c.UpsertMany([]model.User{u}) == 0
}

// Get looks a user up by any id shape model.CoerceID accepts. A malformed id is a miss.
func (c *Cache) Get(id any) (model.User, bool) {
	key, ok := model.CoerceID(id)
	if !ok {
		metrics.EmitCacheLookup(c.metrics, false)
		return model.User{}, false
	}
	u, ok := c.lru.Get(key)
	metrics.EmitCacheLookup(c.metrics, ok)
	return u, ok
}

// Remove evicts id. Unknown or malformed ids are ignored.
func (c *Cache) Remove(id any) {
	if key, ok := model.CoerceID(id); ok {
		c.lru.Remove(key)
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Len returns the number of cached users.
func (c *Cache) Len() int {
	return c.lru.Len()
}
