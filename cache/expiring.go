package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Expiring is a typed TTL cache for values with natural staleness, such
// as status snapshots. Unlike Memo it computes nothing itself: callers
// Set what they want cached and entries age out on their own.
type Expiring[V any] struct {
	inner *gocache.Cache
}

// NewExpiring creates an Expiring cache whose entries live for
// defaultTTL and are swept every cleanupInterval.
func NewExpiring[V any](defaultTTL, cleanupInterval time.Duration) *Expiring[V] {
	return &Expiring[V]{inner: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the live value for key. Expired, missing or wrong-typed
// entries read as absent.
func (e *Expiring[V]) Get(key string) (V, bool) {
	raw, ok := e.inner.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		var zero V
		return zero, false
	}
	return v, true
}

// Set stores v under key with the default TTL.
func (e *Expiring[V]) Set(key string, v V) {
	e.inner.SetDefault(key, v)
}

// SetFor stores v under key with an explicit TTL.
func (e *Expiring[V]) SetFor(key string, v V, ttl time.Duration) {
	e.inner.Set(key, v, ttl)
}

// Delete removes key if present.
func (e *Expiring[V]) Delete(key string) {
	e.inner.Delete(key)
}

// Flush drops every entry.
func (e *Expiring[V]) Flush() {
	e.inner.Flush()
}

// Len returns the number of items held, expired-but-unswept included.
func (e *Expiring[V]) Len() int {
	return e.inner.ItemCount()
}
