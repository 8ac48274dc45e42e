package container_test

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/km-arc/go-servicekit/container"
)

type mailer interface {
	Send(to string) string
}

type stubMailer struct{ id int }

func (m *stubMailer) Send(to string) string { return fmt.Sprintf("mailer[%d] → %s", m.id, to) }

var mailerType = container.TypeOf[mailer]()

// registerMailers registers n stub mailers under (mailer, contract) and
// returns them in registration order.
func registerMailers(t *testing.T, c *container.Container, n int, contract ...string) []*stubMailer {
	t.Helper()
	out := make([]*stubMailer, n)
	for i := 0; i < n; i++ {
		m := &stubMailer{id: i}
		out[i] = m
		c.Register(func() any { return m }, mailerType, contract...)
	}
	return out
}

// ── Register / GetService / GetServices ───────────────────────────────────────

func TestContainer_GetServiceReturnsLastRegistration(t *testing.T) {
	c := container.New()
	mailers := registerMailers(t, c, 3)

	got := c.GetService(mailerType)
	require.Same(t, mailers[2], got, "the newest registration wins")
}

func TestContainer_GetServicesReturnsAllInRegistrationOrder(t *testing.T) {
	c := container.New()
	mailers := registerMailers(t, c, 3)

	got := c.GetServices(mailerType)
	require.Len(t, got, 3)
	for i, m := range mailers {
		require.Same(t, m, got[i])
	}
}

func TestContainer_MissingRegistrationIsNotAnError(t *testing.T) {
	c := container.New()

	require.Nil(t, c.GetService(mailerType))
	require.NotNil(t, c.GetServices(mailerType), "GetServices returns empty, never nil")
	require.Empty(t, c.GetServices(mailerType))
	require.False(t, c.HasRegistration(mailerType))
}

func TestContainer_ContractsPartitionRegistrations(t *testing.T) {
	c := container.New()
	intType := container.TypeOf[int]()

	c.Register(func() any { return 42 }, intType)
	c.Register(func() any { return 7 }, intType, "tag")

	require.Equal(t, 42, c.GetService(intType))
	require.Equal(t, 7, c.GetService(intType, "tag"))
	require.Nil(t, c.GetService(intType, "missing"))
}

func TestContainer_EmptyContractEqualsAbsentContract(t *testing.T) {
	c := container.New()
	intType := container.TypeOf[int]()

	c.Register(func() any { return 1 }, intType, "")

	require.Equal(t, 1, c.GetService(intType))
	require.True(t, c.HasRegistration(intType))
}

func TestContainer_NilServiceTypeIsASentinelKey(t *testing.T) {
	c := container.New()

	c.Register(func() any { return "anonymous" }, nil)

	require.True(t, c.HasRegistration(nil))
	require.Equal(t, "anonymous", c.GetService(nil))
	require.False(t, c.HasRegistration(mailerType))
}

func TestContainer_RegisteredNilIsDistinguishable(t *testing.T) {
	c := container.New()

	c.Register(func() any { return nil }, mailerType)

	require.True(t, c.HasRegistration(mailerType), "a factory producing nil is still a registration")
	require.Nil(t, c.GetService(mailerType))
	require.Equal(t, []any{nil}, c.GetServices(mailerType))
}

func TestContainer_NilFactoryPanics(t *testing.T) {
	c := container.New()
	require.Panics(t, func() { c.Register(nil, mailerType) })
}

func TestContainer_MultipleContractsPanic(t *testing.T) {
	c := container.New()
	require.Panics(t, func() { c.GetService(mailerType, "a", "b") })
}

func TestContainer_FactoryPanicPropagates(t *testing.T) {
	c := container.New()

	var calls atomic.Int32
	c.Register(func() any {
		if calls.Add(1) == 1 {
			panic("factory exploded")
		}
		return "ok"
	}, mailerType)

	require.PanicsWithValue(t, "factory exploded", func() { c.GetService(mailerType) })

	// Factories run outside the lock, so the container stays usable and
	// the registration survives; nothing was cached or retried.
	require.True(t, c.HasRegistration(mailerType))
	require.Equal(t, "ok", c.GetService(mailerType))
	require.Equal(t, int32(2), calls.Load())
}

// ── Unregister ────────────────────────────────────────────────────────────────

func TestContainer_UnregisterCurrentPopsNewestOnly(t *testing.T) {
	c := container.New()
	mailers := registerMailers(t, c, 3)

	c.UnregisterCurrent(mailerType)

	got := c.GetServices(mailerType)
	require.Len(t, got, 2)
	require.Same(t, mailers[0], got[0])
	require.Same(t, mailers[1], got[1])
	require.Same(t, mailers[1], c.GetService(mailerType), "the previous registration is exposed again")
}

func TestContainer_UnregisterCurrentOnEmptyKeyIsNoop(t *testing.T) {
	c := container.New()
	c.UnregisterCurrent(mailerType) // must not panic
	require.False(t, c.HasRegistration(mailerType))
}

func TestContainer_UnregisterAllClearsTheKey(t *testing.T) {
	c := container.New()
	registerMailers(t, c, 3)
	registerMailers(t, c, 1, "debug")

	c.UnregisterAll(mailerType)

	require.False(t, c.HasRegistration(mailerType))
	require.Empty(t, c.GetServices(mailerType))
	require.True(t, c.HasRegistration(mailerType, "debug"), "other contracts are untouched")
}

// ── Registration callbacks ────────────────────────────────────────────────────

func TestContainer_RegisterCallbackFiresPerFutureRegistration(t *testing.T) {
	c := container.New()
	registerMailers(t, c, 1)

	var fired int
	sub := c.RegisterCallback(mailerType, "", func() { fired++ })
	require.Equal(t, 0, fired, "existing registrations do not fire")

	registerMailers(t, c, 2)
	require.Equal(t, 2, fired)

	registerMailers(t, c, 1, "debug")
	require.Equal(t, 2, fired, "other contracts do not fire")

	require.NoError(t, sub.Dispose())
	registerMailers(t, c, 1)
	require.Equal(t, 2, fired, "disposed subscriptions stay quiet")
}

func TestContainer_RegisterCallbackNilPanics(t *testing.T) {
	c := container.New()
	require.Panics(t, func() { c.RegisterCallback(mailerType, "", nil) })
}

// ── Duplicate ─────────────────────────────────────────────────────────────────

func TestContainer_DuplicateIsIndependent(t *testing.T) {
	c := container.New()
	mailers := registerMailers(t, c, 2)

	dup := c.Duplicate()

	// The snapshot resolves like the original.
	require.Same(t, mailers[1], dup.GetService(mailerType))
	require.Len(t, dup.GetServices(mailerType), 2)

	// Mutating the original never shows through the copy.
	c.UnregisterAll(mailerType)
	require.Len(t, dup.GetServices(mailerType), 2)

	// And the other way round.
	registerMailers(t, dup, 3, "extra")
	require.False(t, c.HasRegistration(mailerType, "extra"))
}

// ── Dispose ───────────────────────────────────────────────────────────────────

func TestContainer_DisposedMutationsPanic(t *testing.T) {
	c := container.New()
	registerMailers(t, c, 1)
	require.NoError(t, c.Dispose())
	require.True(t, c.IsDisposed())

	require.PanicsWithError(t, container.ErrDisposed.Error(), func() {
		c.Register(func() any { return nil }, mailerType)
	})
	require.PanicsWithError(t, container.ErrDisposed.Error(), func() {
		c.UnregisterCurrent(mailerType)
	})
	require.PanicsWithError(t, container.ErrDisposed.Error(), func() {
		c.UnregisterAll(mailerType)
	})
	require.PanicsWithError(t, container.ErrDisposed.Error(), func() {
		c.RegisterCallback(mailerType, "", func() {})
	})
	require.PanicsWithError(t, container.ErrDisposed.Error(), func() {
		c.Duplicate()
	})
}

func TestContainer_DisposedLookupsStayTotal(t *testing.T) {
	c := container.New()
	registerMailers(t, c, 2)
	require.NoError(t, c.Dispose())

	require.Nil(t, c.GetService(mailerType))
	require.Empty(t, c.GetServices(mailerType))
	require.False(t, c.HasRegistration(mailerType))
}

func TestContainer_DisposeIsIdempotent(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Dispose())
	require.NoError(t, c.Dispose())
}

func TestContainer_CallbackDisposeAfterContainerDisposeIsHarmless(t *testing.T) {
	c := container.New()
	sub := c.RegisterCallback(mailerType, "", func() {})
	require.NoError(t, c.Dispose())
	require.NoError(t, sub.Dispose())
}

// ── Properties ────────────────────────────────────────────────────────────────

func TestContainer_RegistrationOrderIsPreserved(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.Int(), 0, 24).Draw(t, "values")
		pops := rapid.IntRange(0, len(values)).Draw(t, "pops")

		c := container.New()
		intType := container.TypeOf[int]()
		for _, v := range values {
			v := v
			c.Register(func() any { return v }, intType)
		}
		for i := 0; i < pops; i++ {
			c.UnregisterCurrent(intType)
		}

		want := values[:len(values)-pops]
		got := c.GetServices(intType)
		if len(got) != len(want) {
			t.Fatalf("GetServices returned %d values, want %d", len(got), len(want))
		}
		for i, v := range want {
			if got[i] != v {
				t.Fatalf("GetServices[%d] = %v, want %v", i, got[i], v)
			}
		}
		if len(want) > 0 {
			if cur := c.GetService(intType); cur != want[len(want)-1] {
				t.Fatalf("GetService = %v, want %v", cur, want[len(want)-1])
			}
		} else if cur := c.GetService(intType); cur != nil {
			t.Fatalf("GetService = %v, want nil", cur)
		}
	})
}

// ── Concurrency ───────────────────────────────────────────────────────────────

func TestContainer_ConcurrentUseStaysConsistent(t *testing.T) {
	c := container.New()
	intType := container.TypeOf[int]()
	workers := runtime.GOMAXPROCS(0) * 4

	var registered atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			contract := fmt.Sprintf("worker-%d", seed%4)
			for i := 0; i < 200; i++ {
				switch i % 4 {
				case 0:
					v := seed*1000 + i
					c.Register(func() any { return v }, intType, contract)
					registered.Add(1)
				case 1:
					c.GetService(intType, contract)
				case 2:
					c.GetServices(intType, contract)
				default:
					c.HasRegistration(intType, contract)
				}
			}
		}(w)
	}
	wg.Wait()

	var total int
	for i := 0; i < 4; i++ {
		total += len(c.GetServices(intType, fmt.Sprintf("worker-%d", i)))
	}
	require.Equal(t, int(registered.Load()), total, "every concurrent registration must survive the hammer")

	c.UnregisterAll(intType, "worker-0")
	require.Empty(t, c.GetServices(intType, "worker-0"))
}
