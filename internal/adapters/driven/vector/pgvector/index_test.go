package pgvector

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

func TestToRow(t *testing.T) {
	row := toRow(driven.VectorRecord{
		ID:     "doc::abcd1234::00000",
		Vector: []float32{0.1, 0.2},
		Metadata: map[string]string{
			driven.MetaDocumentID:   "doc",
			driven.MetaProviderKind: "workspace-page",
			driven.MetaChunkIndex:   "0",
		},
	})

	assert.Equal(t, "doc", row.DocumentID)
	assert.Equal(t, "workspace-page", row.ProviderKind)
	assert.Equal(t, []float32{0.1, 0.2}, row.Embedding.Slice())
	assert.Equal(t, "0", row.Metadata[driven.MetaChunkIndex])
}

func TestFromJSONMap(t *testing.T) {
	got := fromJSONMap(datatypes.JSONMap{"title": "Runbook", "chunk_index": float64(3), "nil": nil})
	assert.Equal(t, map[string]string{"title": "Runbook", "chunk_index": "3"}, got)
}

func TestNewWithDB_Validation(t *testing.T) {
	_, err := NewWithDB(nil, Config{Table: "bad-name;", Dimensions: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewWithDB(nil, Config{Dimensions: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_Integration(t *testing.T) {
	dsn := os.Getenv("SERCHA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SERCHA_TEST_POSTGRES_DSN not set")
	}
	idx, err := New(Config{DSN: dsn, Table: "chunk_vectors_test", Dimensions: 3})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	ctx := context.Background()
	doc := "it-" + uuid.NewString()
	ids := []string{doc + "::aaaa::00000", doc + "::aaaa::00001"}
	require.NoError(t, idx.Upsert(ctx, []driven.VectorRecord{
		{ID: ids[0], Vector: []float32{1, 0, 0}, Metadata: map[string]string{driven.MetaDocumentID: doc, driven.MetaProviderKind: "repo-file"}},
		{ID: ids[1], Vector: []float32{0, 1, 0}, Metadata: map[string]string{driven.MetaDocumentID: doc, driven.MetaProviderKind: "repo-file"}},
	}))

	hits, err := idx.Query(ctx, []float32{1, 0, 0}, 1, map[string]string{driven.MetaDocumentID: doc})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, ids[0], hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)

	require.NoError(t, idx.Delete(ctx, append(ids, "missing")))
	hits, err = idx.Query(ctx, []float32{1, 0, 0}, 5, map[string]string{driven.MetaDocumentID: doc})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
