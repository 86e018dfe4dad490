package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"namescrub/internal/rename"
	"namescrub/internal/watch"
	"namescrub/pkg/testutils"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileExists(path string) func() bool {
	return func() bool {
		_, err := os.Stat(path)
		return err == nil
	}
}

func TestServiceRenamesArrivals(t *testing.T) {
	dir := t.TempDir()
	logger, hook := test.NewNullLogger()

	engine := rename.New("pdf", rename.WithLogger(logger), rename.WithSkipClean(true))
	svc, err := watch.NewService(engine, logger)
	require.NoError(t, err)

	require.NoError(t, svc.Start(dir))
	assert.True(t, svc.Status().Running)
	assert.Equal(t, []string{dir}, svc.Status().Directories)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes (1).txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan (1).pdf"), []byte("x"), 0644))

	require.Eventually(t, fileExists(filepath.Join(dir, "scan1.pdf")), 3*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return svc.Status().FilesProcessed == 1
	}, 3*time.Second, 20*time.Millisecond)

	// The clean name produced by the rename is seen but skipped.
	time.Sleep(200 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	status := svc.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.FilesProcessed)
	assert.Equal(t, 0, status.FilesFailed)
	testutils.AssertFiles(t, dir, "notes (1).txt", "scan1.pdf")

	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, entry.Level, entry.Message)
	}
}

func TestServiceBuffersArrivalsBeforeServe(t *testing.T) {
	dir := t.TempDir()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	engine := rename.New("pdf", rename.WithLogger(logger), rename.WithSkipClean(true))
	svc, err := watch.NewService(engine, logger)
	require.NoError(t, err)
	require.NoError(t, svc.Start(dir))

	// Created after Start but before Serve, as during an initial pass.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "early (1).pdf"), []byte("x"), 0644))
	// Created and renamed away before Serve sees its arrival.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gone (1).pdf"), []byte("x"), 0644))
	require.NoError(t, rename.MoveFile(filepath.Join(dir, "gone (1).pdf"), filepath.Join(dir, "gone1.pdf")))
	time.Sleep(200 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	require.Eventually(t, fileExists(filepath.Join(dir, "early1.pdf")), 3*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	testutils.AssertFiles(t, dir, "early1.pdf", "gone1.pdf")
	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, entry.Level, entry.Message)
	}
}

func TestServiceStartMissingDirectory(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc, err := watch.NewService(rename.New("pdf"), logger)
	require.NoError(t, err)

	err = svc.Start(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	assert.False(t, svc.Status().Running)
	svc.Stop()
}

func TestServiceStopBeforeServe(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc, err := watch.NewService(rename.New("pdf"), logger)
	require.NoError(t, err)
	require.NoError(t, svc.Start(t.TempDir()))

	svc.Stop()
	assert.False(t, svc.Status().Running)
	// Arrivals are closed, so Serve returns at once.
	assert.NoError(t, svc.Serve(context.Background()))
}
