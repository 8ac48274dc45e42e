package dispose_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-servicekit/dispose"
)

// ── Action ────────────────────────────────────────────────────────────────────

func TestAction_RunsExactlyOnce(t *testing.T) {
	calls := 0
	a := dispose.NewAction(func() { calls++ })

	require.False(t, a.IsDisposed())
	require.NoError(t, a.Dispose())
	require.NoError(t, a.Dispose())
	require.NoError(t, a.Dispose())

	require.Equal(t, 1, calls)
	require.True(t, a.IsDisposed())
}

func TestAction_NilFuncIsNoop(t *testing.T) {
	a := dispose.NewAction(nil)
	require.NoError(t, a.Dispose())
	require.True(t, a.IsDisposed())
}

func TestAction_ConcurrentDisposeRunsOnce(t *testing.T) {
	calls := 0
	a := dispose.NewAction(func() { calls++ })

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Dispose()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, calls)
}

// ── Composite ─────────────────────────────────────────────────────────────────

func TestComposite_DisposesInReverseOrder(t *testing.T) {
	var order []string
	c := dispose.NewComposite(
		dispose.NewAction(func() { order = append(order, "first") }),
		dispose.NewAction(func() { order = append(order, "second") }),
	)
	c.Add(dispose.NewAction(func() { order = append(order, "third") }))

	require.Equal(t, 3, c.Len())
	require.NoError(t, c.Dispose())
	require.Equal(t, []string{"third", "second", "first"}, order)
}

func TestComposite_ConstructorDropsNilItems(t *testing.T) {
	calls := 0
	c := dispose.NewComposite(nil, dispose.NewAction(func() { calls++ }), nil)

	require.Equal(t, 1, c.Len())
	require.NoError(t, c.Dispose())
	require.Equal(t, 1, calls)
}

func TestComposite_DisposeIsIdempotent(t *testing.T) {
	calls := 0
	c := dispose.NewComposite(dispose.NewAction(func() { calls++ }))

	require.NoError(t, c.Dispose())
	require.NoError(t, c.Dispose())
	require.Equal(t, 1, calls)
	require.True(t, c.IsDisposed())
	require.Equal(t, 0, c.Len())
}

func TestComposite_AddAfterDisposeDisposesImmediately(t *testing.T) {
	c := dispose.NewComposite()
	require.NoError(t, c.Dispose())

	late := dispose.NewAction(func() {})
	c.Add(late)

	require.True(t, late.IsDisposed())
	require.Equal(t, 0, c.Len())
}

func TestComposite_JoinsItemErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	c := dispose.NewComposite(
		failing{errA},
		dispose.NewAction(func() {}),
		failing{errB},
	)

	err := c.Dispose()
	require.Error(t, err)
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
}

func TestEmpty_DisposeIsHarmless(t *testing.T) {
	require.NoError(t, dispose.Empty.Dispose())
	require.NoError(t, dispose.Empty.Dispose())
}

// failing is a Disposable stub that always errors.
type failing struct{ err error }

func (f failing) Dispose() error { return f.err }
