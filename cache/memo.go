// Package cache provides the two cache flavours used across go-servicekit:
// Memo, a bounded memoizing cache with insertion-order eviction, and
// Expiring, a typed TTL cache for byproducts with natural staleness.
package cache

import (
	"container/list"
	"errors"
	"reflect"
	"sync"
)

// ErrNilKey is the panic value raised when a nil key reaches a cache
// operation. Nil keys are programmer errors, never swallowed.
var ErrNilKey = errors.New("cache: nil key")

// MinCapacity is the smallest size a Memo can be configured with;
// smaller requests are clamped up to it.
const MinCapacity = 1

// ── Memo ──────────────────────────────────────────────────────────────────────

// Memo is a bounded, thread-safe memoizing cache. Values are computed on
// first access by the factory and retained until invalidated or evicted.
// Once the cache exceeds its size, the entry with the OLDEST original
// insertion is evicted — access does not refresh an entry's age.
//
//	loggers := cache.NewMemo(func(t reflect.Type, _ any) (*Logger, error) {
//	    return newLoggerFor(t), nil
//	}, 64)
//	l, err := loggers.Get(reflect.TypeOf(svc))
//
// A single lock serialises the whole check-compute-insert sequence, so at
// most one factory invocation is ever in flight per cache — racing callers
// for the same key observe the first caller's value. The factory (and the
// release hook) must not call back into the same cache: the lock is not
// reentrant.
type Memo[K comparable, V any] struct {
	mu        sync.Mutex
	factory   func(K, any) (V, error)
	maxSize   int
	entries   map[K]*list.Element
	order     *list.List // front = oldest insertion, back = newest
	onRelease func(V)
}

// memoEntry is the list payload: the key is kept so eviction can delete
// the map slot without a reverse index.
type memoEntry[K comparable, V any] struct {
	key   K
	value V
}

// MemoOption configures a Memo at construction time.
type MemoOption[K comparable, V any] func(*Memo[K, V])

// WithOnRelease installs a hook invoked for every value leaving the
// cache, whether by eviction, Invalidate or InvalidateAll.
func WithOnRelease[K comparable, V any](fn func(V)) MemoOption[K, V] {
	return func(m *Memo[K, V]) { m.onRelease = fn }
}

// NewMemo creates a Memo holding at most maxSize entries (clamped to
// MinCapacity). The factory receives the key and the optional parameter
// passed to GetWith; a nil factory panics.
func NewMemo[K comparable, V any](factory func(K, any) (V, error), maxSize int, opts ...MemoOption[K, V]) *Memo[K, V] {
	if factory == nil {
		panic(errors.New("cache: nil factory"))
	}
	if maxSize < MinCapacity {
		maxSize = MinCapacity
	}
	m := &Memo[K, V]{
		factory: factory,
		maxSize: maxSize,
		entries: make(map[K]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the memoized value for key, computing it on first access.
// A factory error propagates to the caller and is not cached: the next
// Get for the same key invokes the factory again.
func (m *Memo[K, V]) Get(key K) (V, error) {
	return m.GetWith(key, nil)
}

// GetWith is Get with an extra parameter forwarded to the factory on a
// miss. The parameter takes no part in the cache key: two GetWith calls
// for one key with different parameters still share one entry.
func (m *Memo[K, V]) GetWith(key K, param any) (V, error) {
	mustUsableKey(key)

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		return el.Value.(*memoEntry[K, V]).value, nil
	}

	val, err := m.factory(key, param)
	if err != nil {
		var zero V
		return zero, err
	}

	m.entries[key] = m.order.PushBack(&memoEntry[K, V]{key: key, value: val})
	if len(m.entries) > m.maxSize {
		m.evictOldest()
	}
	return val, nil
}

// TryGet looks the key up without ever invoking the factory.
func (m *Memo[K, V]) TryGet(key K) (V, bool) {
	mustUsableKey(key)

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		return el.Value.(*memoEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Invalidate removes the entry for key if present; absent keys are a
// no-op. The release hook sees the removed value.
func (m *Memo[K, V]) Invalidate(key K) {
	mustUsableKey(key)

	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return
	}
	ent := m.order.Remove(el).(*memoEntry[K, V])
	delete(m.entries, ent.key)
	if m.onRelease != nil {
		m.onRelease(ent.value)
	}
}

// InvalidateAll clears the cache. The release hook sees every removed
// value, oldest first.
func (m *Memo[K, V]) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for el := m.order.Front(); el != nil; el = el.Next() {
		if m.onRelease != nil {
			m.onRelease(el.Value.(*memoEntry[K, V]).value)
		}
	}
	m.entries = make(map[K]*list.Element)
	m.order.Init()
}

// CachedValues returns a snapshot of the held values in insertion order.
// The snapshot is internally consistent under concurrent mutation.
func (m *Memo[K, V]) CachedValues() []V {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]V, 0, len(m.entries))
	for el := m.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*memoEntry[K, V]).value)
	}
	return out
}

// Len returns the number of live entries.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictOldest drops the front of the insertion list (must hold mu).
func (m *Memo[K, V]) evictOldest() {
	el := m.order.Front()
	if el == nil {
		return
	}
	ent := m.order.Remove(el).(*memoEntry[K, V])
	delete(m.entries, ent.key)
	if m.onRelease != nil {
		m.onRelease(ent.value)
	}
}

// mustUsableKey panics with ErrNilKey for nil interfaces and nil
// pointer-kinded keys. Comparable keys can still smuggle nil in through
// pointer, channel or interface type arguments.
func mustUsableKey(key any) {
	if key == nil {
		panic(ErrNilKey)
	}
	switch v := reflect.ValueOf(key); v.Kind() {
	case reflect.Ptr, reflect.Chan, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.UnsafePointer:
		if v.IsNil() {
			panic(ErrNilKey)
		}
	}
}
