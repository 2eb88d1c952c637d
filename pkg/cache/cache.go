// Package cache defines the memo tables used by the gateway. Entries are written once
// per key; the unbounded backend never evicts, the bounded one is backed by theine.
package cache

import (
	"fmt"
	"sync"

	"github.com/Yiling-J/theine-go"
)

// Cache defines an interface for a generic, concurrency-safe cache.
type Cache[K comparable, V any] interface {

	// Get returns the value for the given key in the cache, if it exists.
	Get(key K) (V, bool)

	// Set sets a value for the key in the cache.
	Set(key K, value V)

	// Close closes the cache, cleaning up any residual resources before returning.
	Close()
}

type options struct {
	maxEntries int64
}

type Opt func(*options)

// WithMaxEntries bounds the number of entries. Zero or less means unbounded.
func WithMaxEntries(maxEntries int64) Opt {
	return func(o *options) {
		o.maxEntries = maxEntries
	}
}

// New returns an unbounded in-memory cache, or a bounded one when WithMaxEntries is
// given a positive size.
func New[K comparable, V any](opts ...Opt) (Cache[K, V], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.maxEntries > 0 {
		return NewBoundedCache[K, V](o.maxEntries)
	}

	return NewInMemoryCache[K, V](), nil
}

// InMemoryCache keeps every entry for its whole lifetime.
type InMemoryCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

var _ Cache[string, any] = (*InMemoryCache[string, any])(nil)

func NewInMemoryCache[K comparable, V any]() *InMemoryCache[K, V] {
	return &InMemoryCache[K, V]{
		entries: make(map[K]V),
	}
}

func (c *InMemoryCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *InMemoryCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *InMemoryCache[K, V]) Close() {}

// BoundedCache evicts entries once maxEntries is reached.
type BoundedCache[K comparable, V any] struct {
	client    *theine.Cache[K, V]
	closeOnce sync.Once
}

var _ Cache[string, any] = (*BoundedCache[string, any])(nil)

func NewBoundedCache[K comparable, V any](maxEntries int64) (*BoundedCache[K, V], error) {
	client, err := theine.NewBuilder[K, V](maxEntries).Build()
	if err != nil {
		return nil, fmt.Errorf("building bounded cache: %w", err)
	}
	return &BoundedCache[K, V]{client: client}, nil
}

func (c *BoundedCache[K, V]) Get(key K) (V, bool) {
	return c.client.Get(key)
}

func (c *BoundedCache[K, V]) Set(key K, value V) {
	c.client.Set(key, value, 1)
}

func (c *BoundedCache[K, V]) Close() {
	c.closeOnce.Do(c.client.Close)
}
