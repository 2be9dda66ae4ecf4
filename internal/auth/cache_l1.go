package auth

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// l1Cache is the always-present edge memory tier. Backed by
// patrickmn/go-cache, the library's own janitor goroutine handles
// expiry so the store never needs its own sweep loop.
type l1Cache struct {
	c *gocache.Cache
}

func newL1Cache(ttl time.Duration) *l1Cache {
	return &l1Cache{c: gocache.New(ttl, ttl/2)}
}

func (l *l1Cache) get(key string) (map[string]string, bool) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]string)
	return m, ok
}

// getWithTTL returns the value along with its residual TTL, for callers
// that need to backfill another tier with the same expiry.
func (l *l1Cache) getWithTTL(key string) (map[string]string, time.Duration, bool) {
	v, expiration, ok := l.c.GetWithExpiration(key)
	if !ok {
		return nil, 0, false
	}
	m, ok := v.(map[string]string)
	if !ok {
		return nil, 0, false
	}
	var ttl time.Duration
	if !expiration.IsZero() {
		ttl = time.Until(expiration)
	}
	return m, ttl, true
}

func (l *l1Cache) set(key string, value map[string]string, ttl time.Duration) {
	l.c.Set(key, value, ttl)
}

func (l *l1Cache) delete(key string) {
	l.c.Delete(key)
}
