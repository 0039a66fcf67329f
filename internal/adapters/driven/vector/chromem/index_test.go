package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

func records() []driven.VectorRecord {
	return []driven.VectorRecord{
		{ID: "doc::aaaa::00000", Vector: []float32{1, 0, 0}, Metadata: map[string]string{
			driven.MetaDocumentID: "doc", driven.MetaProviderKind: "workspace-page", driven.MetaTextExcerpt: "first",
		}},
		{ID: "doc::aaaa::00001", Vector: []float32{0, 1, 0}, Metadata: map[string]string{
			driven.MetaDocumentID: "doc", driven.MetaProviderKind: "workspace-page", driven.MetaTextExcerpt: "second",
		}},
		{ID: "repo@main:a.md::bbbb::00000", Vector: []float32{0.8, 0.2, 0}, Metadata: map[string]string{
			driven.MetaDocumentID: "repo@main:a.md", driven.MetaProviderKind: "repo-file",
		}},
	}
}

func TestIndex_UpsertQuery(t *testing.T) {
	idx, err := New(Config{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, records()))
	assert.Equal(t, 3, idx.Count())

	hits, err := idx.Query(ctx, []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "doc::aaaa::00000", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
	assert.Equal(t, "first", hits[0].Metadata[driven.MetaTextExcerpt])
}

func TestIndex_QueryFilter(t *testing.T) {
	idx, err := New(Config{})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, records()))

	hits, err := idx.Query(ctx, []float32{1, 0, 0}, 2, map[string]string{driven.MetaProviderKind: "repo-file"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "repo@main:a.md::bbbb::00000", hits[0].ID)
}

func TestIndex_DeleteIdempotent(t *testing.T) {
	idx, err := New(Config{})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, records()))

	require.NoError(t, idx.Delete(ctx, []string{"doc::aaaa::00000", "doc::aaaa::00001", "missing"}))
	require.NoError(t, idx.Delete(ctx, []string{"doc::aaaa::00000"}))
	require.NoError(t, idx.Delete(ctx, nil))
	assert.Equal(t, 1, idx.Count())
}

func TestIndex_EmptyOperations(t *testing.T) {
	idx, err := New(Config{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, nil))
	hits, err := idx.Query(ctx, []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NoError(t, idx.Close())
}

func TestIndex_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := New(Config{Path: dir, Collection: "test"})
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, records()))
	require.NoError(t, idx.Delete(ctx, []string{"doc::aaaa::00001"}))

	reopened, err := New(Config{Path: dir, Collection: "test"})
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Count())
}
