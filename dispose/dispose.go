// Package dispose provides small scoped-resource primitives: one-shot
// action disposables and LIFO composite groups. They are the currency of
// every unsubscribe/scope-exit handle in go-servicekit.
package dispose

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Disposable releases a held resource or undoes a side effect.
// Implementations must tolerate repeated Dispose calls.
type Disposable interface {
	Dispose() error
}

// Empty is a Disposable that does nothing. Useful as a neutral return
// value when there is nothing to undo.
var Empty Disposable = nop{}

type nop struct{}

func (nop) Dispose() error { return nil }

// ── Action ────────────────────────────────────────────────────────────────────

// Action runs a function exactly once, on the first Dispose call.
//
//	unsubscribe := dispose.NewAction(func() { bus.remove(token) })
//	defer unsubscribe.Dispose()
type Action struct {
	once sync.Once
	done atomic.Bool
	fn   func()
}

// NewAction wraps fn in a one-shot Disposable. A nil fn yields a no-op.
func NewAction(fn func()) *Action {
	return &Action{fn: fn}
}

// Dispose runs the wrapped function. Only the first call has any effect;
// concurrent callers never run it twice.
func (a *Action) Dispose() error {
	a.once.Do(func() {
		if a.fn != nil {
			a.fn()
		}
		a.fn = nil
		a.done.Store(true)
	})
	return nil
}

// IsDisposed reports whether Dispose has already run.
func (a *Action) IsDisposed() bool {
	return a.done.Load()
}

// ── Composite ─────────────────────────────────────────────────────────────────

// Composite groups Disposables so they can be released together. Items
// are disposed in reverse insertion order (last added, first disposed).
type Composite struct {
	mu       sync.Mutex
	items    []Disposable
	disposed bool
}

// NewComposite creates a Composite seeded with the given items. Nil
// items are dropped, as in Add.
func NewComposite(items ...Disposable) *Composite {
	c := &Composite{}
	for _, d := range items {
		if d != nil {
			c.items = append(c.items, d)
		}
	}
	return c
}

// Add appends d to the group. Adding to an already-disposed Composite
// disposes d immediately.
func (c *Composite) Add(d Disposable) {
	if d == nil {
		return
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose() //nolint:errcheck // late arrivals are best-effort
		return
	}
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Dispose releases every item in reverse insertion order. Item errors are
// joined; the first Dispose wins and later calls return nil.
func (c *Composite) Dispose() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	var errs []error
	for i := len(items) - 1; i >= 0; i-- {
		if err := items[i].Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of items currently held.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// IsDisposed reports whether the group has been released.
func (c *Composite) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}
