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
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// startWatcher runs a watcher and returns the channel its batches arrive on
func startWatcher(t *testing.T, dir string, debounce time.Duration) <-chan []source.ModuleFile {
	t.Helper()
	batches := make(chan []source.ModuleFile, 8)
	w, err := New(dir, "*.dll", debounce, func(ctx context.Context, modules []source.ModuleFile) {
		batches <- modules
	}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return batches
}

func waitBatch(t *testing.T, batches <-chan []source.ModuleFile) []source.ModuleFile {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a batch")
		return nil
	}
}

func baseNames(modules []source.ModuleFile) []string {
	var names []string
	for _, m := range modules {
		names = append(names, m.BaseName)
	}
	return names
}

func TestWatcherBatchesChanges(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir, 150*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Rust.Data.dll"), []byte("MZ"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Facepunch.Core.DLL"), []byte("MZ"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Rust.Data.dll"), []byte("MZ2"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Rust.Data.pdb"), []byte("x"), 0644))

	batch := waitBatch(t, batches)
	assert.Equal(t, []string{"Facepunch.Core", "Rust.Data"}, baseNames(batch))
	assert.Equal(t, filepath.Join(dir, "Rust.Data.dll"), batch[1].Path)

	select {
	case extra := <-batches:
		t.Fatalf("unexpected second batch %v", baseNames(extra))
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherSkipsVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir, 150*time.Millisecond)

	tmp := filepath.Join(dir, "Oxide.Core.dll")
	require.NoError(t, os.WriteFile(tmp, []byte("MZ"), 0644))
	require.NoError(t, os.Remove(tmp))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Oxide.Rust.dll"), []byte("MZ"), 0644))

	assert.Equal(t, []string{"Oxide.Rust"}, baseNames(waitBatch(t, batches)))
}

func TestNewErrors(t *testing.T) {
	noop := func(context.Context, []source.ModuleFile) {}

	_, err := New(filepath.Join(t.TempDir(), "missing"), "*.dll", time.Millisecond, noop, nil)
	require.Error(t, err)

	_, err = New(t.TempDir(), "[", time.Millisecond, noop, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestCloseStopsRun(t *testing.T) {
	w, err := New(t.TempDir(), "", 10*time.Millisecond, func(context.Context, []source.ModuleFile) {}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	require.NoError(t, w.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
