package container

import (
	"fmt"
	"reflect"
	"sync"
)

// ── Generics helpers ──────────────────────────────────────────────────────────
//
// Typed wrappers over the canonical untyped operations. They are free
// functions because Go methods cannot carry their own type parameters.

// TypeOf returns the reflect.Type for T. Works for interface types,
// which plain reflect.TypeOf cannot name.
//
//	mailerType := container.TypeOf[Mailer]()
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get resolves the current T. The bool is false when nothing is
// registered, when the registered factory produced nil, or when the
// produced value is not a T.
//
//	// Instead of: mailer := r.GetService(container.TypeOf[Mailer]()).(Mailer)
//	// Write:      mailer, ok := container.Get[Mailer](r)
func Get[T any](r Resolver, contract ...string) (T, bool) {
	raw := r.GetService(TypeOf[T](), contract...)
	if raw == nil {
		var zero T
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return v, true
}

// MustGet is Get for registrations that are wiring invariants: it panics
// when the service is missing or mistyped.
func MustGet[T any](r Resolver, contract ...string) T {
	raw := r.GetService(TypeOf[T](), contract...)
	v, ok := raw.(T)
	if !ok {
		panic(fmt.Sprintf("container: MustGet[%s] resolved to %T", describeKey(TypeOf[T](), contract), raw))
	}
	return v
}

// GetAll resolves every registration for T in registration order,
// skipping values that are not a T.
func GetAll[T any](r Resolver, contract ...string) []T {
	raws := r.GetServices(TypeOf[T](), contract...)
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		if v, ok := raw.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Has reports whether any T is registered under the contract.
func Has[T any](r Resolver, contract ...string) bool {
	return r.HasRegistration(TypeOf[T](), contract...)
}

// Register registers a typed factory: a new instance per resolution.
//
//	container.Register(r, func() Mailer { return NewSMTPMailer(cfg) })
func Register[T any](r MutableResolver, factory func() T, contract ...string) {
	if factory == nil {
		panic(fmt.Sprintf("container: nil factory registered for [%s]", TypeOf[T]()))
	}
	r.Register(func() any { return factory() }, TypeOf[T](), contract...)
}

// RegisterConstant registers a pre-built value; every resolution returns
// the same instance.
func RegisterConstant[T any](r MutableResolver, value T, contract ...string) {
	r.Register(func() any { return value }, TypeOf[T](), contract...)
}

// RegisterLazy registers a factory invoked at most once, on first
// resolution; every resolution thereafter returns the memoized instance.
func RegisterLazy[T any](r MutableResolver, factory func() T, contract ...string) {
	if factory == nil {
		panic(fmt.Sprintf("container: nil factory registered for [%s]", TypeOf[T]()))
	}
	once := sync.OnceValue(factory)
	r.Register(func() any { return once() }, TypeOf[T](), contract...)
}

// describeKey renders a (type, contract) pair for diagnostics.
func describeKey(t reflect.Type, contract []string) string {
	name := typeName(t)
	if c := contractName(contract); c != "" {
		return name + ", contract " + c
	}
	return name
}
