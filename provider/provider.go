// Package provider groups related service registrations into reusable units
// and supplies the defaults that back the ambient locator.
//
// A Provider bundles the registrations for one concern (logging, mode
// detection, ...) so applications can seed a resolver in one call:
//
//	r := container.New()
//	provider.Apply(r, provider.Defaults(nil)...)
//
// Custom providers embed Base and implement Register:
//
//	type MailProvider struct {
//		provider.Base
//	}
//
//	func (MailProvider) Register(r container.MutableResolver) {
//		container.RegisterLazy(r, newSMTPMailer)
//	}
package provider

import (
	"reflect"
	"sync"

	"github.com/km-arc/go-servicekit/config"
	"github.com/km-arc/go-servicekit/container"
	"github.com/km-arc/go-servicekit/logging"
	"github.com/km-arc/go-servicekit/mode"
)

// ── Provider interface ────────────────────────────────────────────────────────

// Provider bundles the registrations for one concern.
type Provider interface {
	// Register binds the provider's services into the resolver.
	Register(r container.MutableResolver)

	// Provides reports the service types this provider registers, for
	// introspection. Providers may return nil when the set is not knowable
	// up front.
	Provides() []reflect.Type
}

// Base is an embeddable default implementation of the optional Provider
// methods. Embedders only have to write Register.
type Base struct{}

// Provides reports no types. Override to advertise registrations.
func (Base) Provides() []reflect.Type { return nil }

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry queues providers and applies each of them exactly once.
//
// Providers added before Apply are registered together, in the order they
// were added, when Apply runs. Providers added after Apply register
// immediately. Adding the same provider instance twice is a no-op.
type Registry struct {
	mu       sync.Mutex
	resolver container.MutableResolver
	queued   []Provider
	added    []Provider
	seen     map[Provider]bool
	applied  bool
}

// NewRegistry returns a registry that applies providers against r.
//
//	reg := provider.NewRegistry(r)
//	reg.Add(&MailProvider{})
//	reg.Apply()
func NewRegistry(r container.MutableResolver) *Registry {
	return &Registry{
		resolver: r,
		seen:     make(map[Provider]bool),
	}
}

// Add queues p for the next Apply. If Apply has already run, p registers
// immediately instead. Duplicate instances are ignored.
func (reg *Registry) Add(p Provider) {
	reg.mu.Lock()
	if reg.seen[p] {
		reg.mu.Unlock()
		return
	}
	reg.seen[p] = true
	reg.added = append(reg.added, p)
	if !reg.applied {
		reg.queued = append(reg.queued, p)
		reg.mu.Unlock()
		return
	}
	reg.mu.Unlock()

	p.Register(reg.resolver)
}

// Apply registers every queued provider in order. Repeat calls are no-ops;
// each provider registers at most once.
func (reg *Registry) Apply() {
	reg.mu.Lock()
	if reg.applied {
		reg.mu.Unlock()
		return
	}
	reg.applied = true
	queued := reg.queued
	reg.queued = nil
	reg.mu.Unlock()

	// Register outside the lock so providers can Add follow-up providers.
	for _, p := range queued {
		p.Register(reg.resolver)
	}
}

// Applied reports whether Apply has run.
func (reg *Registry) Applied() bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.applied
}

// Providers returns the providers added so far, in order.
func (reg *Registry) Providers() []Provider {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]Provider, len(reg.added))
	copy(out, reg.added)
	return out
}

// Apply is a convenience for the common bootstrap path: it adds the given
// providers to a fresh registry and applies them against r at once.
func Apply(r container.MutableResolver, providers ...Provider) {
	reg := NewRegistry(r)
	for _, p := range providers {
		reg.Add(p)
	}
	reg.Apply()
}

// ── Built-in providers ────────────────────────────────────────────────────────

// ConfigProvider registers the kit configuration.
//
// Registered services:
//   - *config.Config — the supplied Config, or a lazy config.Load of
//     EnvFiles when none was given
type ConfigProvider struct {
	Base
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigProvider) Register(r container.MutableResolver) {
	if p.Config != nil {
		container.RegisterConstant(r, p.Config)
		return
	}
	envFiles := p.EnvFiles
	container.RegisterLazy(r, func() *config.Config {
		return config.Load(envFiles...)
	})
}

func (p *ConfigProvider) Provides() []reflect.Type {
	return []reflect.Type{container.TypeOf[*config.Config]()}
}

// LoggingProvider registers the default logger and the memoizing log manager.
//
// Registered services:
//   - logging.Logger  — a console logger at the configured level when
//     Log.Console is set, the null logger otherwise
//   - logging.Manager — a DefaultManager sized by Cache.LoggerSize
type LoggingProvider struct {
	Base
	Config *config.Config
}

func (p *LoggingProvider) Register(r container.MutableResolver) {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Load()
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}

	logger := logging.NewNullLogger()
	if cfg.Log.Console {
		logger = logging.NewConsoleLogger(level)
	}
	container.RegisterConstant(r, logger)
	container.RegisterConstant[logging.Manager](r, logging.NewManager(r, cfg.Cache.LoggerSize))
}

func (p *LoggingProvider) Provides() []reflect.Type {
	return []reflect.Type{
		container.TypeOf[logging.Logger](),
		container.TypeOf[logging.Manager](),
	}
}

// ModeProvider applies a configuration-forced execution mode and registers
// the resulting detector.
//
// When Mode.ForceTest parses as a bool, the package-wide mode override is
// set before anything consults mode.InTestRunner. The registered Detector
// reports the effective (post-override) answer.
//
// Registered services:
//   - mode.Detector
type ModeProvider struct {
	Base
	Config *config.Config
}

func (p *ModeProvider) Register(r container.MutableResolver) {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Load()
	}

	if forced, ok := cfg.Mode.Forced(); ok {
		mode.Override(mode.Fixed(forced))
	}
	container.RegisterConstant[mode.Detector](r, mode.DetectorFunc(func() (bool, bool) {
		return mode.InTestRunner(), true
	}))
}

func (p *ModeProvider) Provides() []reflect.Type {
	return []reflect.Type{container.TypeOf[mode.Detector]()}
}

// Defaults returns the providers the ambient locator applies when it builds
// its initial resolver: configuration, logging, and mode detection. Pass nil
// to load configuration from the environment.
func Defaults(cfg *config.Config) []Provider {
	if cfg == nil {
		cfg = config.Load()
	}
	return []Provider{
		&ConfigProvider{Config: cfg},
		&LoggingProvider{Config: cfg},
		&ModeProvider{Config: cfg},
	}
}
