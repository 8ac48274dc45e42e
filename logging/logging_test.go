package logging_test

import (
	"bytes"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-servicekit/container"
	"github.com/km-arc/go-servicekit/logging"
)

// recorder is a Logger stub capturing every write above its threshold.
type recorder struct {
	mu        sync.Mutex
	threshold logging.Level
	lines     []string
}

func (r *recorder) Write(level logging.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, level.String()+" "+msg)
}

func (r *recorder) Level() logging.Level { return r.threshold }

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// ── Level ─────────────────────────────────────────────────────────────────────

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{" Warn ", logging.LevelWarn, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"fatal", logging.LevelFatal, false},
		{"verbose", logging.LevelInfo, true},
		{"", logging.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_String(t *testing.T) {
	require.Equal(t, "debug", logging.LevelDebug.String())
	require.Equal(t, "fatal", logging.LevelFatal.String())
	require.Equal(t, "level(99)", logging.Level(99).String())
}

// ── FullLogger ────────────────────────────────────────────────────────────────

func TestFullLogger_GatesOnInnerThreshold(t *testing.T) {
	rec := &recorder{threshold: logging.LevelWarn}
	log := logging.NewFullLogger(rec, "")

	log.Debug("dropped")
	log.Infof("dropped %d", 1)
	log.Warn("kept")
	log.Errorf("kept %s", "too")
	log.Fatal("kept as well")

	require.Equal(t, []string{"warn kept", "error kept too", "fatal kept as well"}, rec.all())
}

func TestFullLogger_PrependsPrefix(t *testing.T) {
	rec := &recorder{threshold: logging.LevelDebug}
	log := logging.NewFullLogger(rec, "billing.Worker")

	log.Info("charge settled")

	require.Equal(t, []string{"info billing.Worker: charge settled"}, rec.all())
}

func TestFullLogger_NilInnerFallsBackToNull(t *testing.T) {
	log := logging.NewFullLogger(nil, "x")
	log.Error("nowhere to go") // must not panic
	require.Equal(t, logging.LevelFatal, log.Level())
}

// ── Null and slog loggers ─────────────────────────────────────────────────────

func TestNullLogger_DiscardsEverything(t *testing.T) {
	l := logging.NewNullLogger()
	l.Write(logging.LevelFatal, "gone")
	require.Equal(t, logging.LevelFatal, l.Level())
}

func TestSlogLogger_WritesThroughHandler(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	l := logging.NewSlogLogger(h, logging.LevelInfo)

	l.Write(logging.LevelDebug, "below threshold")
	l.Write(logging.LevelInfo, "hello slog")

	out := buf.String()
	require.NotContains(t, out, "below threshold")
	require.Contains(t, out, "hello slog")
	require.Contains(t, out, "level=INFO")
}

// ── Manager ───────────────────────────────────────────────────────────────────

type orderService struct{}
type paymentService struct{}

func TestManager_MemoizesPerType(t *testing.T) {
	c := container.New()
	m := logging.NewManager(c, 8)

	a1 := logging.For[*orderService](m)
	a2 := logging.For[*orderService](m)
	b := logging.For[*paymentService](m)

	require.Same(t, a1, a2, "one FullLogger per type")
	require.NotSame(t, a1, b)
}

func TestManager_EvictionCreatesFreshLogger(t *testing.T) {
	c := container.New()
	m := logging.NewManager(c, 1)

	first := logging.For[*orderService](m)
	logging.For[*paymentService](m) // evicts orderService from the size-1 cache
	again := logging.For[*orderService](m)

	require.NotSame(t, first, again)
}

func TestManager_UsesRegisteredLoggerWithTypePrefix(t *testing.T) {
	c := container.New()
	rec := &recorder{threshold: logging.LevelDebug}
	container.RegisterConstant[logging.Logger](c, rec)

	m := logging.NewManager(c, 8)
	logging.For[*orderService](m).Info("ready")

	lines := rec.all()
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "orderService: ready")
}

func TestManager_WrapsLoggerCurrentAtFirstUse(t *testing.T) {
	c := container.New()
	rec1 := &recorder{threshold: logging.LevelDebug}
	rec2 := &recorder{threshold: logging.LevelDebug}
	container.RegisterConstant[logging.Logger](c, rec1)

	m := logging.NewManager(c, 8)
	logging.For[*orderService](m).Info("one")

	container.RegisterConstant[logging.Logger](c, rec2)
	logging.For[*orderService](m).Info("two")   // memoized: still rec1
	logging.For[*paymentService](m).Info("new") // first use: picks up rec2

	require.Len(t, rec1.all(), 2)
	require.Len(t, rec2.all(), 1)
}

func TestManager_NoLoggerRegisteredDiscards(t *testing.T) {
	c := container.New()
	m := logging.NewManager(c, 8)

	log := logging.For[*orderService](m)
	log.Error("into the void") // must not panic
	require.Equal(t, logging.LevelFatal, log.Level())
}

func TestManagerFunc_Adapts(t *testing.T) {
	rec := &recorder{threshold: logging.LevelDebug}
	m := logging.ManagerFunc(func(typ reflect.Type) *logging.FullLogger {
		return logging.NewFullLogger(rec, typ.String())
	})

	logging.For[int](m).Info("adapted")

	require.Equal(t, []string{"info int: adapted"}, rec.all())
}
