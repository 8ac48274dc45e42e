// Package mode answers one question — is this process running under a
// test runner? — through an explicit, overridable Detector instead of
// runtime probing. The ambient locator consults it to decide whether
// resolver swaps should land in the test-override slot.
package mode

import (
	"flag"
	"os"
	"strings"
	"sync"
)

// Detector decides whether the process runs under a test runner. known
// reports whether the detector could tell at all; unknown answers fall
// through to the built-in heuristic.
type Detector interface {
	InTestRunner() (isTest, known bool)
}

// DetectorFunc adapts a plain function to the Detector interface.
type DetectorFunc func() (isTest, known bool)

// InTestRunner calls f.
func (f DetectorFunc) InTestRunner() (bool, bool) { return f() }

// Fixed returns a Detector that always answers v. Useful for forcing a
// mode from configuration.
func Fixed(v bool) Detector {
	return DetectorFunc(func() (bool, bool) { return v, true })
}

var (
	mu       sync.Mutex
	override Detector
	cached   *bool
)

// InTestRunner reports whether the process runs under a test runner,
// asking the override detector first and the built-in heuristic second.
// The first decided answer is memoized until Reset or Override.
func InTestRunner() bool {
	mu.Lock()
	defer mu.Unlock()
	if cached != nil {
		return *cached
	}
	v := decide()
	cached = &v
	return v
}

// Override installs d ahead of the built-in heuristic and clears the
// memoized answer. Passing nil removes a previous override.
func Override(d Detector) {
	mu.Lock()
	defer mu.Unlock()
	override = d
	cached = nil
}

// Reset clears the override and the memoized answer, returning the
// package to its initial state.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	override = nil
	cached = nil
}

// decide must hold mu.
func decide() bool {
	if override != nil {
		if v, known := override.InTestRunner(); known {
			return v
		}
	}
	return looksLikeTestBinary()
}

// looksLikeTestBinary recognises `go test` processes without reflection:
// the generated test main registers test.* flags, and test binaries are
// named <package>.test.
func looksLikeTestBinary() bool {
	if flag.Lookup("test.v") != nil {
		return true
	}
	if len(os.Args) == 0 {
		return false
	}
	exe := os.Args[0]
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}
