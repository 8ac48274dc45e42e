// Package container provides the service registry at the heart of
// go-servicekit: a thread-safe multimap from (service type, contract) to
// ordered factory lists, with last-registered-wins resolution.
//
// # Overview
//
// A Container does not construct object graphs; it remembers, per
// composite key, every factory handed to it and answers two questions:
// "what is the current implementation?" (GetService — the newest
// registration) and "what are all of them?" (GetServices — everything,
// oldest first). The optional string contract disambiguates multiple
// registrations of one type.
//
// # Registering
//
//	c := container.New()
//
//	// Untyped — the canonical operation
//	c.Register(func() any { return NewSMTPMailer(cfg) }, container.TypeOf[Mailer]())
//
//	// Typed — a new instance per resolution
//	container.Register(c, func() Mailer { return NewSMTPMailer(cfg) })
//
//	// Pre-built value
//	container.RegisterConstant[*Config](c, cfg)
//
//	// Built once, on first resolution
//	container.RegisterLazy(c, func() *Pool { return dialPool(cfg) })
//
//	// Contract-qualified
//	container.Register(c, func() Mailer { return NewLogMailer() }, "debug")
//
// # Resolving
//
//	// Untyped
//	raw := c.GetService(container.TypeOf[Mailer]())
//
//	// Typed (preferred — no assertion at the call site)
//	mailer, ok := container.Get[Mailer](c)
//	all := container.GetAll[Mailer](c)
//
// Missing registrations are never errors: GetService returns nil,
// GetServices returns an empty slice, Get returns false.
//
// # Unregistering
//
//	c.UnregisterCurrent(container.TypeOf[Mailer]()) // pops the newest only
//	c.UnregisterAll(container.TypeOf[Mailer]())     // clears the key
//
// # Watching registrations
//
//	sub := c.RegisterCallback(container.TypeOf[Mailer](), "", func() {
//	    rewireMailSinks(c)
//	})
//	defer sub.Dispose()
//
// # Lifecycle
//
// Duplicate snapshots the table into an independent Container — useful
// before scoped mutation. Dispose releases the table; afterwards any
// mutation panics with ErrDisposed while lookups stay total and empty.
package container
