package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func TestNewIndexStateStore_MissingFile(t *testing.T) {
	store, err := NewIndexStateStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoFileExists(t, store.Path())
}

func TestNewIndexStateStore_EmptyPath(t *testing.T) {
	_, err := NewIndexStateStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewIndexStateStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewIndexStateStore(path)
	assert.Error(t, err)
}

func TestIndexStateStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	ctx := context.Background()

	store, err := NewIndexStateStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &domain.IndexStateRecord{
		DocumentID:  "owner/repo@main:docs/a.md",
		ContentHash: "h1",
		ChunkIDs:    []string{"owner/repo@main:docs/a.md::h1::00000"},
	}))
	require.NoError(t, store.Save(ctx, &domain.IndexStateRecord{DocumentID: "b", Stale: true}))
	require.NoError(t, store.Close())

	reopened, err := NewIndexStateStore(path)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, "owner/repo@main:docs/a.md")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.ContentHash)
	assert.Equal(t, []string{"owner/repo@main:docs/a.md::h1::00000"}, got.ChunkIDs)
	assert.False(t, got.UpdatedAt.IsZero())

	list, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].DocumentID)
	assert.True(t, list[0].Stale)
}

func TestIndexStateStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store, err := NewIndexStateStore(filepath.Join(dir, "state.json"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(context.Background(), &domain.IndexStateRecord{DocumentID: "d"}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestIndexStateStore_IsolatesCallers(t *testing.T) {
	store, err := NewIndexStateStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	ctx := context.Background()

	rec := &domain.IndexStateRecord{DocumentID: "d", ChunkIDs: []string{"x"}}
	require.NoError(t, store.Save(ctx, rec))
	rec.ChunkIDs[0] = "mutated"

	got, err := store.Get(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.ChunkIDs)
}

func TestIndexStateStore_GetMissing(t *testing.T) {
	store, err := NewIndexStateStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.Save(context.Background(), nil), domain.ErrInvalidInput)
}
