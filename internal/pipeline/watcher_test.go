package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsSpecChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewWatcher([]string{dir}, 50*time.Millisecond, nil)
	require.NoError(t, err)

	got := make(chan []string, 4)
	w.Start(context.Background(), func(files []string) { got <- files })
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Activity.json"), []byte("{}"), 0o644))

	select {
	case files := <-got:
		assert.Equal(t, []string{filepath.Join(dir, "Activity.json")}, files)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	w, err := NewWatcher([]string{t.TempDir()}, 0, nil)
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestWatcher_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing")}, 0, nil)
	assert.Error(t, err)
}

func TestPipelineWatch_RunsOnStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := newTestPipeline(t, f.config())

	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan *Stats, 4)
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx, 50*time.Millisecond, func(s *Stats, err error) {
			if err == nil {
				runs <- s
			}
		})
	}()

	select {
	case s := <-runs:
		assert.Equal(t, 1, s.Successful)
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
