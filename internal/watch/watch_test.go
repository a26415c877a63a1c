package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(ch <-chan Event, timeout time.Duration) (Event, bool) {
	select {
	case ev := <-ch:
		return ev, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

func startWatcher(t *testing.T, dir string) <-chan Event {
	t.Helper()
	w, err := New(dir, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	events := make(chan Event, 16)
	go func() {
		_ = w.Run(ctx, func(ev Event) { events <- ev })
	}()
	return events
}

func TestRelevant(t *testing.T) {
	assert.True(t, Relevant("src/a.ts"))
	assert.True(t, Relevant("src/App.tsx"))
	assert.False(t, Relevant("src/a.js"))
	assert.False(t, Relevant("node_modules/x/index.d.ts"))
	assert.False(t, Relevant("dist/a.ts"))
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("type A = 1"), 0o644))

	events := startWatcher(t, dir)
	require.NoError(t, os.WriteFile(path, []byte("type A = 2"), 0o644))

	ev, ok := waitEvent(events, 2*time.Second)
	require.True(t, ok, "expected a change event")
	assert.Equal(t, path, ev.Path)
	assert.False(t, ev.Removed)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("1"), 0o644))

	events := startWatcher(t, dir)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("type A = 1"), 0o644))
	}

	_, ok := waitEvent(events, 2*time.Second)
	require.True(t, ok)
	_, again := waitEvent(events, 150*time.Millisecond)
	assert.False(t, again, "burst should settle into one event")
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	events := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))
	_, ok := waitEvent(events, 200*time.Millisecond)
	assert.False(t, ok)
}

func TestWatcherReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.ts")
	require.NoError(t, os.WriteFile(path, []byte("type G = 1"), 0o644))

	events := startWatcher(t, dir)
	require.NoError(t, os.Remove(path))

	ev, ok := waitEvent(events, 2*time.Second)
	require.True(t, ok)
	assert.True(t, ev.Removed)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	events := startWatcher(t, dir)

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "b.ts")
	require.NoError(t, os.WriteFile(path, []byte("type B = 1"), 0o644))

	ev, ok := waitEvent(events, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, path, ev.Path)
}
