package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

func seed(t *testing.T) *Index {
	t.Helper()
	idx := New()
	err := idx.Upsert(context.Background(), []driven.VectorRecord{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]string{driven.MetaProviderKind: "workspace-page"}},
		{ID: "b", Vector: []float32{0.9, 0.1, 0}, Metadata: map[string]string{driven.MetaProviderKind: "repo-file"}},
		{ID: "c", Vector: []float32{0, 1, 0}, Metadata: map[string]string{driven.MetaProviderKind: "workspace-page"}},
	})
	require.NoError(t, err)
	return idx
}

func TestIndex_QueryOrdersBySimilarity(t *testing.T) {
	idx := seed(t)

	hits, err := idx.Query(context.Background(), []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "b", hits[1].ID)
}

func TestIndex_QueryFilter(t *testing.T) {
	idx := seed(t)

	hits, err := idx.Query(context.Background(), []float32{1, 0, 0}, 10, map[string]string{driven.MetaProviderKind: "workspace-page"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)
}

func TestIndex_UpsertOverwrites(t *testing.T) {
	idx := seed(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorRecord{
		{ID: "a", Vector: []float32{0, 0, 1}, Metadata: map[string]string{"title": "new"}},
	}))
	assert.Equal(t, 3, idx.Len())

	meta, ok := idx.Metadata("a")
	require.True(t, ok)
	assert.Equal(t, "new", meta["title"])
}

func TestIndex_DeleteIdempotent(t *testing.T) {
	idx := seed(t)
	ctx := context.Background()

	require.NoError(t, idx.Delete(ctx, []string{"a", "missing"}))
	require.NoError(t, idx.Delete(ctx, []string{"a"}))
	assert.False(t, idx.Has("a"))
	assert.Equal(t, []string{"b", "c"}, idx.IDs())
}

func TestIndex_DimensionMismatch(t *testing.T) {
	idx := seed(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, []driven.VectorRecord{{ID: "d", Vector: []float32{1, 2}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, idx.Has("d"))

	_, err = idx.Query(ctx, []float32{1}, 1, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_EmptyQuery(t *testing.T) {
	hits, err := New().Query(context.Background(), []float32{1}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NoError(t, New().Close())
}
