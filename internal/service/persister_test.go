package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"arafiles/internal/domain"
	"arafiles/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ─────────────────────────────────────────────────────────────
// Persister tests
// ─────────────────────────────────────────────────────────────

func TestPersister_RapidEditsCoalesceIntoOneWrite(t *testing.T) {
	h := newHarness(t, service.DefaultPersistDelay)
	ctx := context.Background()
	fi := h.seedFolder(t, "Math", 3)

	for i := 1; i <= 5; i++ {
		_, err := h.docs.EditQuestionText(ctx, fi, 2, "edit "+string(rune('0'+i)))
		require.NoError(t, err)
		time.Sleep(15 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return h.meta.saveCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	// Nothing else is pending, so no second write may follow.
	time.Sleep(2 * service.DefaultPersistDelay)
	assert.Equal(t, 1, h.meta.saveCount())
	assert.Equal(t, "edit 5", h.meta.last().Folders[fi].Questions[2].Text)
	assert.False(t, h.persister.Pending())
}

func TestPersister_FlushWritesImmediately(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.seedFolder(t, "History", 1)

	assert.True(t, h.persister.Pending())
	require.NoError(t, h.docs.Flush(context.Background()))
	assert.Equal(t, 1, h.meta.saveCount())
	assert.False(t, h.persister.Pending())

	// A second flush with nothing pending is a no-op.
	require.NoError(t, h.docs.Flush(context.Background()))
	assert.Equal(t, 1, h.meta.saveCount())
}

func TestPersister_FailureWarnsAndKeepsState(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()
	h.meta.setFail(true)

	fi := h.seedFolder(t, "Biology", 2)
	err := h.docs.Flush(ctx)
	assert.ErrorIs(t, err, domain.ErrStorageFailure)

	warnings := h.emitter.Named(service.EventStorageWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Data.(service.WarningEvent).Message, "quota")

	// In-memory state is untouched and the snapshot is retried.
	f, err := h.docs.Folder(fi)
	require.NoError(t, err)
	assert.Len(t, f.Questions, 2)
	assert.True(t, h.persister.Pending())

	h.meta.setFail(false)
	require.NoError(t, h.docs.Flush(ctx))
	require.NotNil(t, h.meta.last())
	assert.Len(t, h.meta.last().Folders[fi].Questions, 2)
}

func TestPersister_NewerScheduleWinsOverFailedSnapshot(t *testing.T) {
	meta := &memMeta{fail: true}
	p := service.NewPersister(meta, nil, zap.NewNop(), time.Hour)
	ctx := context.Background()

	old := domain.NewDocument()
	old.Theme = "old"
	p.Schedule(old)
	assert.Error(t, p.Flush(ctx))

	newer := domain.NewDocument()
	newer.Theme = "new"
	p.Schedule(newer)
	meta.setFail(false)
	require.NoError(t, p.Flush(ctx))
	assert.Equal(t, "new", meta.last().Theme)
}

func TestPersister_DiscardBeatsFailedSave(t *testing.T) {
	meta := &memMeta{fail: true}
	p := service.NewPersister(meta, nil, zap.NewNop(), time.Hour)
	ctx := context.Background()

	old := domain.NewDocument()
	old.Theme = "old"
	p.Schedule(old)

	g := meta.blockSaves()
	flushed := make(chan error, 1)
	go func() { flushed <- p.Flush(ctx) }()
	g.Wait(t)

	discarded := make(chan struct{})
	go func() {
		p.Discard()
		close(discarded)
	}()
	select {
	case <-discarded:
		t.Fatal("Discard returned while a save was in progress")
	case <-time.After(50 * time.Millisecond):
	}
	g.Open()
	assert.Error(t, <-flushed)
	<-discarded

	assert.False(t, p.Pending())
}
