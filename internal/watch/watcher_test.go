package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherFsnotify(t *testing.T) {
	tempDir := t.TempDir()
	logger, _ := test.NewNullLogger()

	w, err := NewWatcher(logger)
	require.NoError(t, err, "New watcher creation failed")

	require.NoError(t, w.AddDirectory(tempDir), "Failed to add directory to watcher")
	require.NoError(t, w.AddDirectory(tempDir), "Adding twice is harmless")
	assert.Equal(t, []string{tempDir}, w.Directories())

	require.NoError(t, w.Start(), "Failed to start watcher")
	defer w.Stop()
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(), "Second start should fail")

	arrivals := w.Arrivals()

	// Subdirectories are not reported
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "sub dir.pdf"), 0755))

	testFilePath := filepath.Join(tempDir, "new scan.pdf")
	require.NoError(t, os.WriteFile(testFilePath, []byte("content"), 0644))

	select {
	case arrival, ok := <-arrivals:
		require.True(t, ok, "Arrivals closed unexpectedly")
		assert.Equal(t, testFilePath, arrival.Path)
		assert.True(t, arrival.Op.Has(fsnotify.Create), "Expected Create operation")
		require.NotNil(t, arrival.Info)
		assert.Equal(t, "new scan.pdf", arrival.Info.Name())
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for CREATE event")
	}

	// A file moved in from elsewhere counts as an arrival
	outside := filepath.Join(t.TempDir(), "moved in.pdf")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))
	movedPath := filepath.Join(tempDir, "moved in.pdf")
	require.NoError(t, os.Rename(outside, movedPath))

	select {
	case arrival := <-arrivals:
		assert.Equal(t, movedPath, arrival.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for renamed-in file")
	}

	w.Stop()
	assert.False(t, w.IsRunning())
	w.Stop()

	// Drain, then the channel must be closed
	for {
		select {
		case _, ok := <-arrivals:
			if !ok {
				assert.Error(t, w.Start(), "A stopped watcher cannot be restarted")
				return
			}
		case <-time.After(time.Second):
			t.Fatal("Arrivals not closed after stop")
		}
	}
}

func TestWatcherAddDirectoryErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w, err := NewWatcher(logger)
	require.NoError(t, err)
	defer w.Stop()

	err = w.AddDirectory(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "plain.pdf")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	err = w.AddDirectory(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestWatcherStopBeforeStart(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w, err := NewWatcher(logger)
	require.NoError(t, err)

	w.Stop()
	_, ok := <-w.Arrivals()
	assert.False(t, ok)
}
