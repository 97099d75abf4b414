package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arafiles/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "arafiles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBlobStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(openTestDB(t))

	id, err := store.Put(ctx, []byte{1, 2, 3}, domain.MimeJPEG)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "img_"))

	b, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b.Bytes)
	assert.Equal(t, domain.MimeJPEG, b.MimeType)
	assert.False(t, b.CreatedAt.IsZero())

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrMissingBlob)

	// Deleting twice is harmless.
	assert.NoError(t, store.Delete(ctx, id))
}

func TestBlobStore_PutAllocatesDistinctIDs(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(openTestDB(t))

	a, err := store.Put(ctx, []byte("a"), "")
	require.NoError(t, err)
	b, err := store.Put(ctx, []byte("b"), "")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	blob, err := store.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, domain.MimePNG, blob.MimeType, "empty mime defaults to png")
}

func TestBlobStore_PutWithIDOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(openTestDB(t))

	require.NoError(t, store.PutWithID(ctx, "img_fixed", []byte("old"), domain.MimePNG))
	require.NoError(t, store.PutWithID(ctx, "img_fixed", []byte("new"), domain.MimeWebP))

	b, err := store.Get(ctx, "img_fixed")
	require.NoError(t, err)
	assert.Equal(t, "new", string(b.Bytes))
	assert.Equal(t, domain.MimeWebP, b.MimeType)

	ids, err := store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"img_fixed"}, ids)
}

func TestBlobStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(openTestDB(t))
	for i := 0; i < 3; i++ {
		_, err := store.Put(ctx, []byte{byte(i)}, "")
		require.NoError(t, err)
	}
	require.NoError(t, store.Clear(ctx))
	ids, err := store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBlobStore_ClosedDBIsStorageFailure(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewBlobStore(db)
	require.NoError(t, db.Close())

	_, err := store.Put(ctx, []byte("x"), "")
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestMetadataStore_LoadEmpty(t *testing.T) {
	store := NewMetadataStore(openTestDB(t))
	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Folders)
	assert.Equal(t, domain.DefaultTheme, doc.Theme)
}

func TestMetadataStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataStore(openTestDB(t))

	doc := domain.NewDocument()
	doc.Theme = "light"
	f := domain.NewFolder("Chemistry", "unit 2")
	f.Questions = append(f.Questions, domain.NewTextQuestion("What is H2O?"), domain.NewImageQuestion("img_x"))
	f.Questions[0].Options = []string{"water", "salt"}
	doc.Folders = append(doc.Folders, f)

	require.NoError(t, store.Save(ctx, doc))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", got.Theme)
	require.Len(t, got.Folders, 1)
	assert.Equal(t, doc.Folders[0], got.Folders[0])

	// Last write wins.
	doc.Folders[0].Name = "Chem"
	require.NoError(t, store.Save(ctx, doc))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Chem", got.Folders[0].Name)
}

func TestMetadataStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataStore(openTestDB(t))

	doc := domain.NewDocument()
	doc.Folders = append(doc.Folders, domain.NewFolder("x", ""))
	require.NoError(t, store.Save(ctx, doc))
	require.NoError(t, store.Clear(ctx))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Folders)
}
