// Package servicekit is the root of the kit: it owns the ambient locator —
// a process-wide pointer to the "current" service resolver — and re-exports
// typed resolution sugar over it.
//
// # Overview
//
// Application wiring should pass a *container.Container (or a *Locator)
// explicitly. The ambient locator exists for the remaining cases: library
// code with no natural injection point fetches the active resolver from one
// well-known place instead of threading a context object through every call.
//
//	servicekit.RegisterConstant[Mailer](smtpMailer)
//
//	// elsewhere, with no access to the container
//	mailer := servicekit.MustGet[Mailer]()
//
// The first read of an unseeded locator builds a default container and
// applies provider.Defaults to it, so configuration, logging, and mode
// detection resolve out of the box.
//
// # Watching resolver changes
//
// Components that cache anything derived from the resolver subscribe to
// reassignments. The callback also runs once at registration, covering the
// resolver already in place:
//
//	sub := servicekit.RegisterResolverChanged(func() {
//		reloadFrom(servicekit.Current())
//	})
//	defer sub.Dispose()
//
// SuppressNotifications opens a scope during which reassignments stay
// silent, for bulk rewiring:
//
//	quiet := servicekit.SuppressNotifications()
//	servicekit.SetCurrent(a)
//	servicekit.SetCurrent(b) // no callbacks for either
//	quiet.Dispose()
//
// # Scoped substitution
//
// WithResolver swaps a resolver in and hands back the undo. Scopes nest and
// unwind LIFO, each restoring the resolver it saw on entry:
//
//	restore := servicekit.WithResolver(fake, true)
//	defer restore.Dispose()
//
// # Tests
//
// Under a detected test runner (see the mode package), SetCurrent writes a
// separate override slot instead of the global one, so a test can install a
// fake without clobbering a resolver the code under test installed. The
// override wins on every read until ClearOverride. Parallel tests should
// not share the default locator at all — give each test its own:
//
//	loc := servicekit.NewLocator()
//	loc.SetCurrent(fake)
package servicekit
