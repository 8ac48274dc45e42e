package logging

import (
	"reflect"

	"github.com/km-arc/go-servicekit/cache"
	"github.com/km-arc/go-servicekit/container"
)

// DefaultCacheSize bounds a manager's per-type logger cache when no
// explicit size is given.
const DefaultCacheSize = 64

// Manager hands out one FullLogger per requesting type.
type Manager interface {
	// GetLogger returns the logger for t. A nil type is misuse and
	// panics.
	GetLogger(t reflect.Type) *FullLogger
}

// ManagerFunc adapts a plain function to the Manager interface.
type ManagerFunc func(reflect.Type) *FullLogger

// GetLogger calls f.
func (f ManagerFunc) GetLogger(t reflect.Type) *FullLogger { return f(t) }

// For returns m's logger for the type T.
//
//	log := logging.For[*OrderWorker](manager)
//	log.Infof("processed %d orders", n)
func For[T any](m Manager) *FullLogger {
	return m.GetLogger(container.TypeOf[T]())
}

// ── DefaultManager ────────────────────────────────────────────────────────────

// DefaultManager memoizes FullLoggers per type so call sites resolve and
// wrap the underlying Logger once, not per log line. The wrapped Logger
// is looked up in the resolver when a type first asks; a FullLogger
// keeps that Logger until its cache entry is evicted, so re-registering
// the Logger only affects types seen afterwards.
type DefaultManager struct {
	loggers *cache.Memo[reflect.Type, *FullLogger]
}

var _ Manager = (*DefaultManager)(nil)

// NewManager creates a DefaultManager resolving Loggers from r. Sizes
// below 1 fall back to DefaultCacheSize. When r has no Logger
// registered, handed-out FullLoggers discard everything.
func NewManager(r container.Resolver, size int) *DefaultManager {
	if size < 1 {
		size = DefaultCacheSize
	}
	return &DefaultManager{
		loggers: cache.NewMemo(func(t reflect.Type, _ any) (*FullLogger, error) {
			logger, ok := container.Get[Logger](r)
			if !ok {
				logger = NewNullLogger()
			}
			return NewFullLogger(logger, t.String()), nil
		}, size),
	}
}

// GetLogger returns the memoized FullLogger for t, creating it on first
// use. Repeated calls for one type return the same instance until the
// entry ages out of the cache.
func (m *DefaultManager) GetLogger(t reflect.Type) *FullLogger {
	l, _ := m.loggers.Get(t) // the factory cannot fail
	return l
}
