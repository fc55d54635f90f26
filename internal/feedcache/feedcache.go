// Package feedcache is an explicit, opt-in per-user per-filter-strength
// cache for ranked feed results. It is never wired into internal/engine by
// default (spec §9's "in-process session cache" design note calls for an
// explicit cache with explicit invalidation, not an implicit one) — a
// presentation layer wires it in front of Engine.Rank if it wants one.
package feedcache

import (
	"fmt"
	"sync"
	"time"

	"newsengine/internal/core"
)

type entry struct {
	articles []core.RankedArticle
	storedAt time.Time
}

// Cache holds ranked feed results keyed by (userID, filterStrength, n).
type Cache struct {
	ttl   time.Duration
	items sync.Map // key string -> entry
}

// New creates a cache whose entries expire after ttl. A zero ttl means
// entries never expire on their own — only InvalidateUser removes them.
func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

func key(userID string, filterStrength float64, n int) string {
	return fmt.Sprintf("%s|%.4f|%d", userID, filterStrength, n)
}

// Get returns the cached ranked articles for (userID, filterStrength, n), if
// present and not expired.
func (c *Cache) Get(userID string, filterStrength float64, n int) ([]core.RankedArticle, bool) {
	v, ok := c.items.Load(key(userID, filterStrength, n))
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if c.ttl > 0 && time.Since(e.storedAt) > c.ttl {
		c.items.Delete(key(userID, filterStrength, n))
		return nil, false
	}
	return e.articles, true
}

// Put stores ranked articles for (userID, filterStrength, n).
func (c *Cache) Put(userID string, filterStrength float64, n int, articles []core.RankedArticle) {
	c.items.Store(key(userID, filterStrength, n), entry{articles: articles, storedAt: time.Now()})
}

// InvalidateUser removes every cached entry for userID. Callers invoke this
// on any write-type feedback (view/deep-dive/not-interested, onboarding
// completion) since those change the user's ranking.
func (c *Cache) InvalidateUser(userID string) {
	prefix := userID + "|"
	c.items.Range(func(k, _ interface{}) bool {
		ks := k.(string)
		if len(ks) >= len(prefix) && ks[:len(prefix)] == prefix {
			c.items.Delete(ks)
		}
		return true
	})
}
