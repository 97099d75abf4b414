package workspace

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"arafiles/internal/config"
	"arafiles/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Export.Scale = 1
	cfg.Persist.Debounce = "1h"
	return cfg
}

func TestWorkspace_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	ws, err := Open(ctx, cfg, nil, zap.NewNop())
	require.NoError(t, err)
	ch, err := ws.Docs.AddFolder(ctx, "Geometry", "")
	require.NoError(t, err)
	_, err = ws.Docs.AddTextQuestion(ctx, ch.Folder, "Angles of a triangle")
	require.NoError(t, err)
	require.NoError(t, ws.Close(ctx), "close flushes the pending save")

	ws, err = Open(ctx, cfg, nil, zap.NewNop())
	require.NoError(t, err)
	defer ws.Close(ctx)

	f, err := ws.Docs.Folder(0)
	require.NoError(t, err)
	assert.Equal(t, "Geometry", f.Name)
	require.Len(t, f.Questions, 1)
	assert.Equal(t, "Angles of a triangle", f.Questions[0].Text)
}

func TestWorkspace_ExportAndBackup(t *testing.T) {
	ctx := context.Background()
	ws, err := Open(ctx, testConfig(t), nil, nil)
	require.NoError(t, err)
	defer ws.Close(ctx)

	ch, err := ws.Docs.AddFolder(ctx, "Export", "")
	require.NoError(t, err)
	_, err = ws.Docs.AddTextQuestion(ctx, ch.Folder, "one")
	require.NoError(t, err)

	var pdf bytes.Buffer
	pages, err := ws.Exports.ExportDocument(ctx, ch.Folder, &pdf)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	var zip bytes.Buffer
	summary, err := ws.Backups.Export(ctx, &zip)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Folders)
}

func TestWorkspace_BackupNow(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Backup.Keep = 1
	em := &service.MockEmitter{}

	ws, err := Open(ctx, cfg, em, zap.NewNop())
	require.NoError(t, err)
	defer ws.Close(ctx)

	path, err := ws.BackupNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.BackupDir(), filepath.Dir(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Len(t, em.Named(service.EventBackupCreated), 1)
}

func TestWorkspace_OpenReportsOrphanedImages(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	ws, err := Open(ctx, cfg, nil, zap.NewNop())
	require.NoError(t, err)
	ch, err := ws.Docs.AddFolder(ctx, "Scans", "")
	require.NoError(t, err)
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 2, 2))))
	_, err = ws.Docs.CaptureImageQuestion(ctx, ch.Folder, img.Bytes())
	require.NoError(t, err)
	_, err = ws.Docs.DeleteFolder(ctx, ch.Folder)
	require.NoError(t, err)
	require.NoError(t, ws.Close(ctx))

	core, logs := observer.New(zap.InfoLevel)
	ws, err = Open(ctx, cfg, nil, zap.New(core))
	require.NoError(t, err)
	defer ws.Close(ctx)

	opened := logs.FilterMessage("workspace opened").All()
	require.Len(t, opened, 1)
	fields := opened[0].ContextMap()
	assert.Equal(t, cfg.DBPath(), fields["db"])
	assert.EqualValues(t, 1, fields["orphaned_images"])

	orphans, err := ws.Docs.Orphans(ctx)
	require.NoError(t, err)
	assert.Len(t, orphans, 1)
}

func TestWorkspace_StartBackground(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Backup.Schedule = "@every 1h"
	cfg.Inbox.Dir = filepath.Join(cfg.DataDir, "inbox")
	em := &service.MockEmitter{}

	ws, err := Open(ctx, cfg, em, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, ws.StartBackground(ctx))
	require.NotNil(t, ws.Scheduler)
	require.NotNil(t, ws.Inbox)

	path, err := ws.Scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.BackupDir(), filepath.Dir(path))

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Inbox.Dir, "drop.png"), pngFixture, 0644))
	require.Eventually(t, func() bool {
		return len(em.Named(service.EventInboxImported)) == 1
	}, 5*time.Second, 20*time.Millisecond)

	f, err := ws.Docs.Folder(0)
	require.NoError(t, err)
	assert.Equal(t, "Inbox", f.Name)
	assert.Len(t, f.Questions, 1)

	require.NoError(t, ws.Close(ctx))
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Scale = 0
	_, err := Open(context.Background(), cfg, nil, nil)
	assert.Error(t, err)
}

// 1x1 transparent PNG.
var pngFixture = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
