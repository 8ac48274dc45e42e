package servicekit

import (
	"sync"

	"github.com/km-arc/go-servicekit/container"
	"github.com/km-arc/go-servicekit/dispose"
	"github.com/km-arc/go-servicekit/logging"
)

// ── Default locator lifecycle ─────────────────────────────────────────────────

var (
	defaultMu      sync.Mutex
	defaultLocator *Locator
)

// Default returns the process-wide locator, creating an unseeded one on
// first use. Prefer passing a *Locator (or a container.Resolver) explicitly;
// Default exists for code with no natural place to receive one.
func Default() *Locator {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLocator == nil {
		defaultLocator = NewLocator()
	}
	return defaultLocator
}

// SetDefault replaces the process-wide locator. A nil locator is misuse and
// panics.
func SetDefault(l *Locator) {
	if l == nil {
		panic("servicekit: nil locator")
	}
	defaultMu.Lock()
	defaultLocator = l
	defaultMu.Unlock()
}

// ResetDefault discards the process-wide locator along with its resolver,
// callbacks, and suppression state. The next Default call starts fresh.
func ResetDefault() {
	defaultMu.Lock()
	defaultLocator = nil
	defaultMu.Unlock()
}

// ── Package-level locator access ──────────────────────────────────────────────

// Current returns the default locator's active resolver.
func Current() container.Resolver { return Default().Current() }

// CurrentMutable returns the default locator's active resolver when it
// supports mutation, nil otherwise.
func CurrentMutable() container.MutableResolver { return Default().CurrentMutable() }

// SetCurrent installs r on the default locator.
func SetCurrent(r container.Resolver) { Default().SetCurrent(r) }

// RegisterResolverChanged subscribes fn to resolver changes on the default
// locator.
func RegisterResolverChanged(fn func()) dispose.Disposable {
	return Default().RegisterResolverChanged(fn)
}

// SuppressNotifications opens a suppression scope on the default locator.
func SuppressNotifications() dispose.Disposable { return Default().SuppressNotifications() }

// WithResolver temporarily installs r on the default locator.
func WithResolver(r container.Resolver, suppressChanged bool) dispose.Disposable {
	return Default().WithResolver(r, suppressChanged)
}

// ── Ambient resolution sugar ──────────────────────────────────────────────────

// Get resolves the last-registered T from the ambient resolver.
//
//	mailer, ok := servicekit.Get[Mailer]()
func Get[T any](contract ...string) (T, bool) {
	return container.Get[T](Current(), contract...)
}

// MustGet resolves T from the ambient resolver and panics when no usable
// registration exists.
func MustGet[T any](contract ...string) T {
	return container.MustGet[T](Current(), contract...)
}

// GetAll resolves every T registered under the contract, in registration
// order.
func GetAll[T any](contract ...string) []T {
	return container.GetAll[T](Current(), contract...)
}

// Has reports whether the ambient resolver has a registration for T.
func Has[T any](contract ...string) bool {
	return container.Has[T](Current(), contract...)
}

// Register appends a typed factory to the ambient resolver.
func Register[T any](factory func() T, contract ...string) {
	container.Register(mustMutable(), factory, contract...)
}

// RegisterConstant registers an already-built value on the ambient resolver.
func RegisterConstant[T any](value T, contract ...string) {
	container.RegisterConstant(mustMutable(), value, contract...)
}

// RegisterLazy registers a factory that runs at most once on the ambient
// resolver.
func RegisterLazy[T any](factory func() T, contract ...string) {
	container.RegisterLazy(mustMutable(), factory, contract...)
}

func mustMutable() container.MutableResolver {
	m := CurrentMutable()
	if m == nil {
		panic("servicekit: current resolver is not mutable")
	}
	return m
}

// ── Logging sugar ─────────────────────────────────────────────────────────────

// LoggerFor returns the memoized logger for T from the ambient resolver's
// log manager. Without a registered manager it returns a discarding logger,
// so call sites never have to nil-check.
//
//	log := servicekit.LoggerFor[OrderService]()
//	log.Infof("processed %d orders", n)
func LoggerFor[T any]() *logging.FullLogger {
	m, ok := container.Get[logging.Manager](Current())
	if !ok {
		return logging.NewFullLogger(nil, "")
	}
	return logging.For[T](m)
}
