// Package cache provides LRU caching for analyzed documents.
package cache

import (
	"container/list"
	"encoding/json"
	"sync"
	"time"

	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/score"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache.
	Get(key K) (V, bool)

	// Put stores a value in the cache.
	Put(key K, value V)

	// Remove removes a value from the cache.
	Remove(key K)

	// Clear removes all entries from the cache.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	Size       int   `json:"size"`
	MaxSize    int   `json:"max_size"`
	TotalBytes int64 `json:"total_bytes"`
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration

	// OnEvict is called when an entry leaves the cache for any reason.
	OnEvict func(key, value interface{})
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{MaxSize: 100}
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	config    Config
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
	now       func() time.Time
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
		now:       time.Now,
	}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}

	e := ent.Value.(*entry[K, V])
	if c.expired(e) {
		c.removeElement(ent)
		c.stats.Misses++
		return zero, false
	}

	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return e.value, true
}

func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = c.deadline()
		return
	}

	e := &entry[K, V]{key: key, value: value, expiresAt: c.deadline()}
	c.entries[key] = c.evictList.PushFront(e)

	for c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		c.removeElement(c.evictList.Back())
		c.stats.Evictions++
	}
}

func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *lruCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

func (c *lruCache[K, V]) deadline() time.Time {
	if c.config.TTL <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.config.TTL)
}

func (c *lruCache[K, V]) expired(e *entry[K, V]) bool {
	return c.config.TTL > 0 && c.now().After(e.expiresAt)
}

func (c *lruCache[K, V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)

	if c.config.OnEvict != nil {
		c.config.OnEvict(e.key, e.value)
	}
}

// BoundedCache is an LRU cache that also limits the total estimated size of
// its values.
type BoundedCache[K comparable, V any] struct {
	cache       Cache[K, V]
	mu          sync.Mutex
	maxBytes    int64
	currentSize int64
	sizes       map[K]int64
	sizeFunc    func(V) int64
}

// NewBoundedCache creates a cache with both entry count and byte size limits.
func NewBoundedCache[K comparable, V any](config Config, maxBytes int64, sizeFunc func(V) int64) *BoundedCache[K, V] {
	c := &BoundedCache[K, V]{
		maxBytes: maxBytes,
		sizes:    make(map[K]int64),
		sizeFunc: sizeFunc,
	}
	onEvict := config.OnEvict
	config.OnEvict = func(key, value interface{}) {
		// called with c.mu held by Put, Remove or Clear
		k := key.(K)
		c.currentSize -= c.sizes[k]
		delete(c.sizes, k)
		if onEvict != nil {
			onEvict(key, value)
		}
	}
	c.cache = NewLRUCache[K, V](config)
	return c
}

// Get retrieves a value from the cache.
func (c *BoundedCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Get(key)
}

// Put stores a value, evicting the least recently used entries until the
// byte budget is met. Values larger than the whole budget are not cached.
func (c *BoundedCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := c.sizeFunc(value)
	if c.maxBytes > 0 && size > c.maxBytes {
		return
	}

	c.cache.Remove(key)
	c.cache.Put(key, value)
	c.sizes[key] = size
	c.currentSize += size

	for c.maxBytes > 0 && c.currentSize > c.maxBytes {
		oldest, ok := c.oldest(key)
		if !ok {
			break
		}
		c.cache.Remove(oldest)
	}
}

// oldest picks the entry to drop next. Sizes are tracked per key, so the
// candidate is any key other than the one just written.
func (c *BoundedCache[K, V]) oldest(keep K) (K, bool) {
	lru, ok := c.cache.(*lruCache[K, V])
	if !ok {
		var zero K
		return zero, false
	}
	lru.mu.Lock()
	defer lru.mu.Unlock()
	for ent := lru.evictList.Back(); ent != nil; ent = ent.Prev() {
		if k := ent.Value.(*entry[K, V]).key; k != keep {
			return k, true
		}
	}
	var zero K
	return zero, false
}

// Remove removes a value from the cache.
func (c *BoundedCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(key)
}

// Clear removes all entries from the cache.
func (c *BoundedCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Clear()
}

// Len returns the number of entries in the cache.
func (c *BoundedCache[K, V]) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics including byte size information.
func (c *BoundedCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.cache.Stats()
	stats.TotalBytes = c.currentSize
	return stats
}

// Key identifies an analysis: the hash of the normalized input and the
// system hint it was analyzed with.
type Key struct {
	Hash   string
	System notation.System
}

// DocumentCache caches analyzed documents by input hash.
type DocumentCache struct {
	cache *BoundedCache[Key, *score.Document]
}

// DefaultMaxBytes bounds the default document cache.
const DefaultMaxBytes = 64 << 20

// NewDocumentCache creates a document cache.
func NewDocumentCache(config Config, maxBytes int64) *DocumentCache {
	return &DocumentCache{
		cache: NewBoundedCache[Key, *score.Document](config, maxBytes, estimateDocumentBytes),
	}
}

// NewDefaultDocumentCache creates a document cache with default limits.
func NewDefaultDocumentCache() *DocumentCache {
	return NewDocumentCache(DefaultConfig(), DefaultMaxBytes)
}

// Get retrieves a document.
func (c *DocumentCache) Get(key Key) (*score.Document, bool) {
	return c.cache.Get(key)
}

// Put stores a document.
func (c *DocumentCache) Put(key Key, doc *score.Document) {
	c.cache.Put(key, doc)
}

// Remove removes a document.
func (c *DocumentCache) Remove(key Key) {
	c.cache.Remove(key)
}

// Clear removes all documents.
func (c *DocumentCache) Clear() {
	c.cache.Clear()
}

// Len returns the number of cached documents.
func (c *DocumentCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics.
func (c *DocumentCache) Stats() Stats {
	return c.cache.Stats()
}

// jsonMarshalFunc can be overridden in tests to simulate marshal errors.
var jsonMarshalFunc = json.Marshal

// estimateDocumentBytes estimates the size of a document by its JSON form.
func estimateDocumentBytes(doc *score.Document) int64 {
	data, err := jsonMarshalFunc(doc)
	if err != nil {
		return 0
	}
	return int64(len(data))
}
