package client

import (
	"strings"
	"sync"
	"time"

	"github.com/OpenListTeam/go-cache"
)

// Cache lifetimes per read.
const (
	NotificationsTTL = 30 * time.Second
	TeamListTTL      = 5 * time.Second
	UserStatsTTL     = 60 * time.Second
	TaskListTTL      = 60 * time.Second
	// DashboardTTL of zero means the dashboard is always fetched.
	DashboardTTL = 0
)

// Cache keys. Parametrised reads append their parameters after the prefix.
const (
	keyNotifications = "notifications"
	keyTeam          = "team:"
	keyStats         = "stats"
	keyTasks         = "tasks:"
	keyDashboard     = "dashboard"
)

type cacheEntry struct {
	value   any
	expires time.Time
}

// responseCache holds decoded responses until they expire or are
// invalidated. keys tracks what was stored so a prefix can be dropped.
type responseCache struct {
	store cache.ICache[cacheEntry]
	now   func() time.Time

	mu   sync.Mutex
	keys map[string]struct{}
}

func newResponseCache(now func() time.Time) *responseCache {
	return &responseCache{
		store: cache.NewMemCache[cacheEntry](),
		now:   now,
		keys:  map[string]struct{}{},
	}
}

func (c *responseCache) get(key string) (any, bool) {
	e, ok := c.store.Get(key)
	if ok && c.now().Before(e.expires) {
		return e.value, true
	}
	c.drop(key)
	return nil, false
}

// set stores value for ttl. A non-positive ttl stores nothing.
func (c *responseCache) set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.keys[key] = struct{}{}
	c.mu.Unlock()
	c.store.Set(key, cacheEntry{value: value, expires: c.now().Add(ttl)}, cache.WithEx[cacheEntry](ttl))
}

func (c *responseCache) drop(key string) {
	c.mu.Lock()
	delete(c.keys, key)
	c.mu.Unlock()
	c.store.Del(key)
}

// invalidate drops every key starting with prefix.
func (c *responseCache) invalidate(prefix string) {
	c.mu.Lock()
	var matched []string
	for key := range c.keys {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
			delete(c.keys, key)
		}
	}
	c.mu.Unlock()
	for _, key := range matched {
		c.store.Del(key)
	}
}

func (c *responseCache) clear() {
	c.mu.Lock()
	c.keys = map[string]struct{}{}
	c.mu.Unlock()
	c.store.Clear()
}

// cached returns the fresh cached value for key or calls fetch and caches
// its result.
func cached[T any](c *responseCache, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	if v, ok := c.get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	c.set(key, v, ttl)
	return v, nil
}
