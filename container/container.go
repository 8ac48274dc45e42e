package container

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/km-arc/go-servicekit/dispose"
)

// ErrDisposed is the panic value raised when a disposed Container is
// mutated. Lookups on a disposed Container stay total and return empty
// results instead.
var ErrDisposed = errors.New("container: use of disposed container")

// ── Core types ────────────────────────────────────────────────────────────────

// Factory builds one service instance per invocation.
type Factory func() any

// Resolver is the read side of a service registry.
type Resolver interface {
	// GetService invokes the last-registered factory for the key and
	// returns its result, or nil when nothing is registered. A missing
	// registration is never an error.
	GetService(serviceType reflect.Type, contract ...string) any

	// GetServices invokes every factory registered under the key, in
	// registration order. The result is empty — never nil — when the key
	// has no registrations.
	GetServices(serviceType reflect.Type, contract ...string) []any

	// HasRegistration reports whether at least one factory is registered
	// under the key.
	HasRegistration(serviceType reflect.Type, contract ...string) bool
}

// MutableResolver extends Resolver with registration and removal.
type MutableResolver interface {
	Resolver

	// Register appends factory to the ordered list for the key.
	Register(factory Factory, serviceType reflect.Type, contract ...string)

	// UnregisterCurrent removes only the most recently registered factory
	// for the key; absent keys are a no-op.
	UnregisterCurrent(serviceType reflect.Type, contract ...string)

	// UnregisterAll removes every factory for the key; absent keys are a
	// no-op.
	UnregisterAll(serviceType reflect.Type, contract ...string)

	// RegisterCallback fires cb after each subsequent registration under
	// (serviceType, contract) until the returned Disposable is disposed.
	RegisterCallback(serviceType reflect.Type, contract string, cb func()) dispose.Disposable
}

// registrationKey is the composite map key: a service type plus its
// optional string contract. A nil serviceType is a legal sentinel key,
// not an error — callers may register without a concrete type.
type registrationKey struct {
	serviceType reflect.Type
	contract    string
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the standard MutableResolver: a multimap from
// (service type, contract) to an ordered list of factories.
//
// Registration order per key is preserved and observable through
// GetServices; GetService always reflects the newest registration. One
// RWMutex guards the table — lookups share the read lock, mutation takes
// the write lock, and factories always run outside the lock so they may
// resolve further services from the same Container.
type Container struct {
	mu sync.RWMutex

	// (type, contract) → ordered factories; last entry wins GetService
	registrations map[registrationKey][]Factory

	// (type, contract) → registration observers
	callbacks map[registrationKey][]keyCallback

	disposed bool
}

// keyCallback pairs an observer with the token its Disposable removes.
type keyCallback struct {
	token string
	fn    func()
}

var (
	_ MutableResolver    = (*Container)(nil)
	_ dispose.Disposable = (*Container)(nil)
)

// New creates an empty Container.
func New() *Container {
	return &Container{
		registrations: make(map[registrationKey][]Factory),
		callbacks:     make(map[registrationKey][]keyCallback),
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register appends factory to the list under (serviceType, contract).
// Registrations never replace one another: the newest merely shadows the
// rest for GetService while GetServices still sees them all.
//
//	c.Register(func() any { return NewSMTPMailer(cfg) }, container.TypeOf[Mailer]())
//	c.Register(func() any { return NewLogMailer() }, container.TypeOf[Mailer](), "debug")
func (c *Container) Register(factory Factory, serviceType reflect.Type, contract ...string) {
	if factory == nil {
		panic(fmt.Sprintf("container: nil factory registered for [%s]", typeName(serviceType)))
	}
	key := keyFor(serviceType, contract)

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		panic(ErrDisposed)
	}
	c.registrations[key] = append(c.registrations[key], factory)
	observers := make([]keyCallback, len(c.callbacks[key]))
	copy(observers, c.callbacks[key])
	c.mu.Unlock()

	// Fired outside the lock so observers may touch the Container.
	for _, o := range observers {
		o.fn()
	}
}

// UnregisterCurrent removes only the most recently registered factory
// under the key, exposing the one registered before it.
func (c *Container) UnregisterCurrent(serviceType reflect.Type, contract ...string) {
	key := keyFor(serviceType, contract)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		panic(ErrDisposed)
	}
	regs := c.registrations[key]
	switch len(regs) {
	case 0:
		return
	case 1:
		delete(c.registrations, key)
	default:
		c.registrations[key] = regs[:len(regs)-1]
	}
}

// UnregisterAll removes every factory under the key.
func (c *Container) UnregisterAll(serviceType reflect.Type, contract ...string) {
	key := keyFor(serviceType, contract)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		panic(ErrDisposed)
	}
	delete(c.registrations, key)
}

// RegisterCallback subscribes cb to future registrations under
// (serviceType, contract). Existing registrations do not fire it. The
// returned Disposable unsubscribes and is safe to dispose at any time,
// even after the Container itself has been disposed.
func (c *Container) RegisterCallback(serviceType reflect.Type, contract string, cb func()) dispose.Disposable {
	if cb == nil {
		panic(fmt.Sprintf("container: nil callback registered for [%s]", typeName(serviceType)))
	}
	key := registrationKey{serviceType: serviceType, contract: contract}
	token := uuid.NewString()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		panic(ErrDisposed)
	}
	c.callbacks[key] = append(c.callbacks[key], keyCallback{token: token, fn: cb})
	c.mu.Unlock()

	return dispose.NewAction(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		observers := c.callbacks[key]
		for i, o := range observers {
			if o.token == token {
				c.callbacks[key] = append(observers[:i:i], observers[i+1:]...)
				return
			}
		}
	})
}

// ── Resolution ────────────────────────────────────────────────────────────────

// GetService returns the result of the LAST registered factory for the
// key, or nil when nothing is registered. Missing registrations are
// never an error; a factory panic propagates to the caller unmodified.
func (c *Container) GetService(serviceType reflect.Type, contract ...string) any {
	key := keyFor(serviceType, contract)

	c.mu.RLock()
	var factory Factory
	if regs := c.registrations[key]; len(regs) > 0 {
		factory = regs[len(regs)-1]
	}
	c.mu.RUnlock()

	if factory == nil {
		return nil
	}
	return factory()
}

// GetServices invokes every factory under the key in registration order.
// The snapshot is taken under the read lock, then factories run outside
// it, so concurrent registrations during invocation are not observed.
func (c *Container) GetServices(serviceType reflect.Type, contract ...string) []any {
	key := keyFor(serviceType, contract)

	c.mu.RLock()
	regs := c.registrations[key]
	snapshot := make([]Factory, len(regs))
	copy(snapshot, regs)
	c.mu.RUnlock()

	out := make([]any, 0, len(snapshot))
	for _, factory := range snapshot {
		out = append(out, factory())
	}
	return out
}

// HasRegistration reports whether the key has at least one factory.
func (c *Container) HasRegistration(serviceType reflect.Type, contract ...string) bool {
	key := keyFor(serviceType, contract)

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.registrations[key]) > 0
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// Duplicate produces an independent copy of the registration table. The
// copy shares no mutable state with the original: mutating one never
// shows through the other. Registration callbacks are not carried over.
func (c *Container) Duplicate() *Container {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.disposed {
		panic(ErrDisposed)
	}

	dup := New()
	for key, regs := range c.registrations {
		cp := make([]Factory, len(regs))
		copy(cp, regs)
		dup.registrations[key] = cp
	}
	return dup
}

// Dispose releases the registration table and its callbacks. Disposing
// twice is harmless. Afterwards every mutation panics with ErrDisposed
// while lookups keep returning empty results.
func (c *Container) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	c.registrations = nil
	c.callbacks = nil
	return nil
}

// IsDisposed reports whether Dispose has run.
func (c *Container) IsDisposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// keyFor builds the composite key, defaulting the contract to "".
func keyFor(serviceType reflect.Type, contract []string) registrationKey {
	return registrationKey{serviceType: serviceType, contract: contractName(contract)}
}

// contractName collapses the optional variadic contract. Absent and ""
// are the same key; passing more than one contract is misuse.
func contractName(contract []string) string {
	switch len(contract) {
	case 0:
		return ""
	case 1:
		return contract[0]
	default:
		panic(fmt.Sprintf("container: at most one contract may be supplied, got %d", len(contract)))
	}
}

// typeName renders a service type for diagnostics, nil sentinel included.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
