package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"arafiles/internal/archive"
	"arafiles/internal/service"
)

// ─────────────────────────────────────────────────────────────
// BackupScheduler tests
// ─────────────────────────────────────────────────────────────

func TestBackupScheduler_RunOnceWritesArchive(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.seedFolder(t, "Nightly", 2)
	dir := t.TempDir()

	s := service.NewBackupScheduler(newBackups(h), dir, "@daily", 0, h.emitter, zap.NewNop())
	at := time.UnixMilli(1700000000000)
	service.SetSchedulerClock(s, func() time.Time { return at })

	path, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "arafiles-backup-1700000000000.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	files, err := archive.Read(data)
	require.NoError(t, err)
	_, ok := archive.Find(files, "data.json")
	assert.True(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	created := h.emitter.Named(service.EventBackupCreated)
	require.Len(t, created, 1)
	payload := created[0].Data.(map[string]any)
	assert.Equal(t, path, payload["path"])
}

func TestBackupScheduler_RetentionKeepsNewest(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.seedFolder(t, "Keep", 1)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("unrelated"), 0644))

	s := service.NewBackupScheduler(newBackups(h), dir, "@daily", 2, nil, zap.NewNop())
	base := time.UnixMilli(1700000000000)
	tick := 0
	service.SetSchedulerClock(s, func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	var paths []string
	for i := 0; i < 4; i++ {
		p, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		paths = append(paths, p)
	}

	archives, err := service.ListBackups(dir)
	require.NoError(t, err)
	require.Len(t, archives, 2)
	assert.Equal(t, paths[2], archives[0].Path)
	assert.Equal(t, paths[3], archives[1].Path)
	assert.True(t, archives[0].TakenAt.Before(archives[1].TakenAt))

	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err, "unrelated files are never pruned")
}

func TestBackupScheduler_FailedExportLeavesNoFile(t *testing.T) {
	h := newHarness(t, time.Hour)
	fi := h.seedFolder(t, "Broken", 0)
	_, err := h.docs.CaptureImageQuestion(context.Background(), fi, pngBytes(t, 2, 2))
	require.NoError(t, err)
	h.blobs.failGet = true
	dir := t.TempDir()

	s := service.NewBackupScheduler(newBackups(h), dir, "@daily", 3, h.emitter, zap.NewNop())
	_, err = s.RunOnce(context.Background())
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, h.emitter.Named(service.EventBackupCreated))
}

func TestBackupScheduler_StartStop(t *testing.T) {
	h := newHarness(t, time.Hour)
	s := service.NewBackupScheduler(newBackups(h), t.TempDir(), "@every 1h", 1, nil, zap.NewNop())

	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")
	s.Stop()
	s.Stop()
}

func TestBackupScheduler_InvalidSchedule(t *testing.T) {
	h := newHarness(t, time.Hour)
	s := service.NewBackupScheduler(newBackups(h), t.TempDir(), "every tuesday", 1, nil, zap.NewNop())
	assert.Error(t, s.Start())
}

func TestListBackups_MissingDir(t *testing.T) {
	archives, err := service.ListBackups(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, archives)
}
