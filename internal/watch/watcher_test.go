package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batches struct {
	mu  sync.Mutex
	got [][]string
}

func (b *batches) record(_ context.Context, changed []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, changed)
	return nil
}

func (b *batches) snapshot() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]string, len(b.got))
	copy(out, b.got)
	return out
}

func resolved(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}

func TestFileWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "models.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("classes: []\n"), 0o644))

	var b batches
	fw, err := New([]string{watched}, 50*time.Millisecond, b.record)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	defer fw.Stop()

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(watched, []byte("classes: [{name: A}]\n"), 0o644))
	require.NoError(t, os.WriteFile(watched, []byte("classes: [{name: B}]\n"), 0o644))

	require.Eventually(t, func() bool { return len(b.snapshot()) > 0 }, 2*time.Second, 20*time.Millisecond)

	got := b.snapshot()
	assert.Equal(t, []string{resolved(t, watched)}, got[0], "bursts collapse into one batch of watched files")
}

func TestFileWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	fw, err := New([]string{path}, 0, func(context.Context, []string) error { return nil })
	require.NoError(t, err)
	require.NoError(t, fw.Start())

	assert.NoError(t, fw.Stop())
	assert.NoError(t, fw.Stop())
}

func TestFileWatcherNoChangesAfterStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	var b batches
	fw, err := New([]string{path}, 30*time.Millisecond, b.record)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	require.NoError(t, fw.Stop())

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, b.snapshot())
}

func TestNewRequiresFiles(t *testing.T) {
	_, err := New(nil, 0, func(context.Context, []string) error { return nil })
	assert.Error(t, err)
}

func TestNewWatchesEachDirectoryOnce(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	fw, err := New([]string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(sub, "c.yaml"),
	}, 0, func(context.Context, []string) error { return nil })
	require.NoError(t, err)
	defer fw.watcher.Close()

	assert.Equal(t, []string{resolved(t, dir), resolved(t, sub)}, fw.dirs)
}
