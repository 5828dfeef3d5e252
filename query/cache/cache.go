// Package cache memoizes read results keyed by model and rendered statement.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// Cache stores query results.
type Cache interface {
	// Get retrieves a value from the cache
	Get(key string) (interface{}, bool)
	// Set stores a value; a zero ttl uses the cache default
	Set(key string, value interface{}, ttl time.Duration)
	// Invalidate removes a specific key from the cache
	Invalidate(key string)
	// InvalidateModel removes every result read from the model
	InvalidateModel(model string)
	// Clear removes all entries from the cache
	Clear()
	// Stats returns cache statistics
	Stats() Stats
}

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// LRUCache bounds results by count and evicts the least recently used.
type LRUCache struct {
	mu         sync.Mutex
	lru        *lru.Cache
	byModel    map[string]map[string]struct{}
	maxSize    int
	defaultTTL time.Duration
	now        func() time.Time

	hits      int64
	misses    int64
	evictions int64
	// removing is set while entries are dropped on purpose so they are not
	// counted as evictions.
	removing bool
}

// NewLRUCache creates a new LRU cache
func NewLRUCache(maxSize int, defaultTTL time.Duration) *LRUCache {
	c := &LRUCache{
		lru:        lru.New(maxSize),
		byModel:    make(map[string]map[string]struct{}),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	c.lru.OnEvicted = c.onEvicted
	return c
}

func (c *LRUCache) onEvicted(key lru.Key, _ interface{}) {
	k := key.(string)
	model := modelOf(k)
	if keys, ok := c.byModel[model]; ok {
		delete(keys, k)
		if len(keys) == 0 {
			delete(c.byModel, model)
		}
	}
	if !c.removing {
		c.evictions++
	}
}

// Get retrieves a value from the cache
func (c *LRUCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(key)
	if !ok {
		c.misses++
		return nil, false
	}
	e := v.(entry)
	if e.expired(c.now()) {
		c.remove(key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores a value in the cache
func (c *LRUCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	model := modelOf(key)
	if c.byModel[model] == nil {
		c.byModel[model] = make(map[string]struct{})
	}
	c.byModel[model][key] = struct{}{}
	c.lru.Add(key, e)
}

// Invalidate removes a specific key from the cache
func (c *LRUCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
}

// InvalidateModel removes every key built by Key for the model.
func (c *LRUCache) InvalidateModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.byModel[model] {
		c.remove(key)
	}
}

// Clear removes all entries and resets the counters
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removing = true
	c.lru.Clear()
	c.removing = false
	c.byModel = make(map[string]map[string]struct{})
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// Stats returns cache statistics
func (c *LRUCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Size:      c.lru.Len(),
		MaxSize:   c.maxSize,
		Evictions: c.evictions,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}

func (c *LRUCache) remove(key string) {
	c.removing = true
	c.lru.Remove(key)
	c.removing = false
}

// Key builds a cache key from the model a statement reads and its rendered
// SQL and arguments.
func Key(model, sql string, args []interface{}) string {
	h := sha256.New()
	h.Write([]byte(sql))
	for _, arg := range args {
		fmt.Fprintf(h, "\x00%T=%v", arg, arg)
	}
	return model + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

func modelOf(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
