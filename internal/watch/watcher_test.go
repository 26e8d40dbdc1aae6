package watch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestWatcher(t *testing.T, path string, debounce time.Duration, fn OnChange) *Watcher {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fsnotify event timing is unreliable on Windows")
	}
	w, err := New(path, debounce, fn)
	require.NoError(t, err)
	t.Cleanup(w.Stop)
	return w
}

func writeProgram(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWriteTriggersRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.dl")
	writeProgram(t, path, "Schemes:\n")

	fired := make(chan string, 4)
	w := newTestWatcher(t, path, 100*time.Millisecond, func(ctx context.Context, p string) {
		fired <- p
	})
	require.NoError(t, w.Start(context.Background()))
	require.True(t, w.IsWatching())

	writeProgram(t, path, "Schemes:\n  p(X)\n")

	select {
	case got := <-fired:
		assert.Equal(t, w.Path(), got)
	case <-time.After(5 * time.Second):
		t.Fatal("change never fired")
	}

	stats := w.GetStats()
	assert.GreaterOrEqual(t, stats.Events, 1)
	assert.Equal(t, 1, stats.Runs)
}

func TestAtomicRenameSaveTriggersRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.dl")
	writeProgram(t, path, "old")

	fired := make(chan struct{}, 4)
	w := newTestWatcher(t, path, 100*time.Millisecond, func(context.Context, string) {
		fired <- struct{}{}
	})
	require.NoError(t, w.Start(context.Background()))

	// Editors write a temp file and rename it over the target.
	tmp := filepath.Join(dir, "prog.dl.tmp")
	writeProgram(t, tmp, "new")
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("rename save never fired")
	}
}

func TestIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.dl")
	writeProgram(t, path, "a")

	var runs atomic.Int32
	w := newTestWatcher(t, path, 50*time.Millisecond, func(context.Context, string) {
		runs.Add(1)
	})
	require.NoError(t, w.Start(context.Background()))

	writeProgram(t, filepath.Join(dir, "other.dl"), "x")
	time.Sleep(300 * time.Millisecond)

	assert.Zero(t, runs.Load())
	assert.Zero(t, w.GetStats().Events)
}

func TestDebounceCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.dl")
	writeProgram(t, path, "0")

	fired := make(chan struct{}, 16)
	w := newTestWatcher(t, path, 200*time.Millisecond, func(context.Context, string) {
		fired <- struct{}{}
	})
	require.NoError(t, w.Start(context.Background()))

	for i := 1; i <= 5; i++ {
		writeProgram(t, path, strconv.Itoa(i))
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("burst never fired")
	}
	select {
	case <-fired:
		t.Fatal("burst fired more than once")
	case <-time.After(500 * time.Millisecond):
	}

	stats := w.GetStats()
	assert.Equal(t, 1, stats.Runs)
	assert.GreaterOrEqual(t, stats.Events, 5)
}

func TestStartStopLifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.dl")
	writeProgram(t, path, "a")

	w := newTestWatcher(t, path, 0, func(context.Context, string) {})

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()), "second Start is a no-op")
	assert.True(t, w.IsWatching())

	w.Stop()
	assert.False(t, w.IsWatching())
	w.Stop()
}

func TestStopWithoutStartReleasesWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.dl")
	writeProgram(t, path, "a")

	w := newTestWatcher(t, path, 0, func(context.Context, string) {})
	assert.False(t, w.IsWatching())
	w.Stop()
}

func TestStartMissingDirFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "prog.dl")
	w := newTestWatcher(t, path, 0, func(context.Context, string) {})

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.False(t, w.IsWatching())
}

func TestContextCancelStopsLoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.dl")
	writeProgram(t, path, "a")

	w := newTestWatcher(t, path, 0, func(context.Context, string) {})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	// Stop must not hang after the loop already exited.
	w.Stop()
}
