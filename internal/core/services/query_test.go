package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

func TestQueryService_Query(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provider.put("a", "Alpha", "alpha text")
	f.provider.put("b", "Beta", "beta text that is longer")
	for _, id := range []string{"a", "b"} {
		_, err := f.indexer.IndexDocument(ctx, pageKind, id)
		require.NoError(t, err)
	}
	s := NewQueryService(f.embedding, f.index)

	hits, err := s.Query(ctx, "alpha text", 0, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Metadata[driven.MetaDocumentID])

	hits, err = s.Query(ctx, "alpha text", 5, map[string]string{driven.MetaDocumentID: "b"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Beta", hits[0].Metadata[driven.MetaTitle])
}

func TestQueryService_Edges(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	hits, err := NewQueryService(nil, nil).Query(ctx, "   ", 3, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = NewQueryService(nil, f.index).Query(ctx, "x", 3, nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = NewQueryService(f.embedding, nil).Query(ctx, "x", 3, nil)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)

	f.embedding.embedErr = errBoom
	_, err = NewQueryService(f.embedding, f.index).Query(ctx, "x", 3, nil)
	assert.ErrorIs(t, err, errBoom)
}
