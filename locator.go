package servicekit

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/km-arc/go-servicekit/config"
	"github.com/km-arc/go-servicekit/container"
	"github.com/km-arc/go-servicekit/dispose"
	"github.com/km-arc/go-servicekit/mode"
	"github.com/km-arc/go-servicekit/provider"
)

// resolverSlot boxes a resolver so the ambient pointers can be swapped
// atomically.
type resolverSlot struct {
	r container.Resolver
}

type changeCallback struct {
	token string
	fn    func()
}

// ── Locator ───────────────────────────────────────────────────────────────────

// Locator holds a "current resolver" pointer with observable mutation: change
// callbacks, suppression scopes, and temporary substitution via WithResolver.
//
// The zero locator is unseeded. The first Current (or CurrentMutable) call
// builds a default container seeded by provider.Defaults and installs it
// without notifying — seeding is initialization, not a reassignment. Every
// later SetCurrent fires the registered callbacks unless a suppression scope
// is held.
//
// One process-wide instance is reachable through Default and the package
// functions mirroring these methods. Tests that run in parallel should use
// their own NewLocator instead of sharing the default one.
type Locator struct {
	global   atomic.Pointer[resolverSlot]
	override atomic.Pointer[resolverSlot]

	seedMu sync.Mutex // serializes lazy default seeding

	mu        sync.Mutex // guards callbacks and suppression depth
	callbacks []changeCallback
	suppress  int
}

// NewLocator returns an unseeded locator.
func NewLocator() *Locator { return &Locator{} }

// Current returns the active resolver: the test override when one is set,
// otherwise the global slot. An unseeded locator builds and installs the
// default resolver first.
func (l *Locator) Current() container.Resolver {
	if slot := l.override.Load(); slot != nil {
		return slot.r
	}
	if slot := l.global.Load(); slot != nil {
		return slot.r
	}
	return l.seedDefaults()
}

// CurrentMutable returns the active resolver when it supports mutation, nil
// otherwise.
func (l *Locator) CurrentMutable() container.MutableResolver {
	if m, ok := l.Current().(container.MutableResolver); ok {
		return m
	}
	return nil
}

// SetCurrent installs r as the active resolver and notifies.
//
// Under a detected test runner the override slot is written instead, so a
// test can substitute a resolver without clobbering one installed by the
// code under test; the global slot is additionally seeded when still unset.
// A nil resolver is misuse and panics.
func (l *Locator) SetCurrent(r container.Resolver) {
	if r == nil {
		panic("servicekit: nil resolver")
	}
	slot := &resolverSlot{r: r}
	if mode.InTestRunner() {
		l.override.Store(slot)
		l.global.CompareAndSwap(nil, slot)
	} else {
		l.global.Store(slot)
	}
	l.notify()
}

// ClearOverride drops the test override so Current falls back to the global
// slot. It notifies when an override was actually removed.
func (l *Locator) ClearOverride() {
	if l.override.Swap(nil) != nil {
		l.notify()
	}
}

// seedDefaults lazily installs the default resolver. No notification: the
// locator goes from unseeded to seeded as part of the read.
func (l *Locator) seedDefaults() container.Resolver {
	l.seedMu.Lock()
	defer l.seedMu.Unlock()
	if slot := l.global.Load(); slot != nil {
		return slot.r
	}
	r := container.New()
	provider.Apply(r, provider.Defaults(config.Load())...)
	// SetCurrent does not take seedMu, so a resolver may have been
	// installed while the defaults were building; it wins over them.
	if !l.global.CompareAndSwap(nil, &resolverSlot{r: r}) {
		if slot := l.global.Load(); slot != nil {
			return slot.r
		}
	}
	return r
}

// Reset returns the locator to its unseeded state: both resolver slots are
// cleared and every resolver-changed subscription is dropped. Like seeding,
// this is lifecycle rather than a reassignment, so nothing fires. Open
// suppression scopes stay with their disposables.
func (l *Locator) Reset() {
	l.override.Store(nil)
	l.global.Store(nil)

	l.mu.Lock()
	l.callbacks = nil
	l.mu.Unlock()
}

// ── Change notifications ──────────────────────────────────────────────────────

// RegisterResolverChanged registers fn to run on every SetCurrent. It also
// runs once immediately, so callers observe the resolver active right now.
// Both the immediate run and later ones are skipped while a suppression
// scope is held. The returned disposable unregisters fn.
//
//	sub := loc.RegisterResolverChanged(func() {
//		rebuildFrom(loc.Current())
//	})
//	defer sub.Dispose()
func (l *Locator) RegisterResolverChanged(fn func()) dispose.Disposable {
	if fn == nil {
		panic("servicekit: nil resolver-changed callback")
	}
	cb := changeCallback{token: uuid.NewString(), fn: fn}

	l.mu.Lock()
	l.callbacks = append(l.callbacks, cb)
	fireNow := l.suppress == 0
	l.mu.Unlock()

	if fireNow {
		fn()
	}

	token := cb.token
	return dispose.NewAction(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, c := range l.callbacks {
			if c.token == token {
				l.callbacks = append(l.callbacks[:i:i], l.callbacks[i+1:]...)
				return
			}
		}
	})
}

// SuppressNotifications opens a suppression scope: until the returned
// disposable is disposed, resolver changes do not fire callbacks. Scopes
// nest; notifications resume when the last one closes. Changes made while
// suppressed are not replayed.
func (l *Locator) SuppressNotifications() dispose.Disposable {
	l.mu.Lock()
	l.suppress++
	l.mu.Unlock()
	return dispose.NewAction(func() {
		l.mu.Lock()
		l.suppress--
		l.mu.Unlock()
	})
}

// NotificationsEnabled reports whether resolver changes currently fire
// callbacks, i.e. no suppression scope is held.
func (l *Locator) NotificationsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.suppress == 0
}

// notify runs the registered callbacks outside the lock, against a snapshot
// of the list. Unsubscribing during an in-flight notification is safe; the
// disposed callback may still see that one notification.
func (l *Locator) notify() {
	l.mu.Lock()
	if l.suppress > 0 {
		l.mu.Unlock()
		return
	}
	fns := make([]func(), len(l.callbacks))
	for i, cb := range l.callbacks {
		fns[i] = cb.fn
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ── Scoped substitution ───────────────────────────────────────────────────────

// WithResolver installs r and returns a disposable that restores the
// resolver that was current at the call. Scopes nest LIFO:
//
//	restore := loc.WithResolver(fake, true)
//	defer restore.Dispose()
//
// With suppressChanged, the swap, everything inside the scope, and the
// restore all run under one suppression scope, released after the restore.
func (l *Locator) WithResolver(r container.Resolver, suppressChanged bool) dispose.Disposable {
	scope := dispose.NewComposite()
	if suppressChanged {
		scope.Add(l.SuppressNotifications())
	}

	prev := l.Current()
	l.SetCurrent(r)

	// Composite disposes newest-first: the restore runs while the
	// suppression scope, if any, is still held.
	scope.Add(dispose.NewAction(func() { l.SetCurrent(prev) }))
	return scope
}
