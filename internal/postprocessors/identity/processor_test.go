package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "identity", New().Name())
}

func TestProcessor_AssignsIdentity(t *testing.T) {
	text := strings.Repeat("A", 2500)
	doc := &domain.Document{ID: "page-1", CanonicalText: text, ContentHash: domain.ContentHash(text)}
	chunks := []domain.Chunk{{Text: "first"}, {Text: "second"}, {Text: "third"}}

	got, err := New().Process(context.Background(), doc, chunks)
	require.NoError(t, err)
	require.Len(t, got, 3)

	prefix := doc.ContentHash[:domain.HashPrefixLen]
	for i, c := range got {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "page-1", c.DocumentID)
		assert.Equal(t, domain.ChunkHash(c.Text), c.Hash)
		assert.Equal(t, c.Text, c.Excerpt)
	}
	assert.Equal(t, "page-1::"+prefix+"::00000", got[0].ID)
	assert.Equal(t, "page-1::"+prefix+"::00001", got[1].ID)
	assert.Equal(t, "page-1::"+prefix+"::00002", got[2].ID)
}

func TestProcessor_ExcerptBounded(t *testing.T) {
	doc := &domain.Document{ID: "d", ContentHash: domain.ContentHash("x")}
	chunks := []domain.Chunk{{Text: strings.Repeat("ü", 500)}}

	got, err := New(WithExcerptLength(10)).Process(context.Background(), doc, chunks)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ü", 10), got[0].Excerpt)

	got, err = New().Process(context.Background(), doc, []domain.Chunk{{Text: strings.Repeat("ü", 500)}})
	require.NoError(t, err)
	assert.Equal(t, []rune(got[0].Excerpt), []rune(strings.Repeat("ü", domain.DefaultExcerptLen)))
}

func TestProcessor_ContentChangeYieldsDisjointIDs(t *testing.T) {
	p := New()
	v1 := &domain.Document{ID: "doc", ContentHash: domain.ContentHash("version one")}
	v2 := &domain.Document{ID: "doc", ContentHash: domain.ContentHash("version two")}

	a, err := p.Process(context.Background(), v1, []domain.Chunk{{Text: "same"}, {Text: "text"}})
	require.NoError(t, err)
	b, err := p.Process(context.Background(), v2, []domain.Chunk{{Text: "same"}, {Text: "text"}})
	require.NoError(t, err)

	for _, x := range a {
		for _, y := range b {
			assert.NotEqual(t, x.ID, y.ID)
		}
	}
}

func TestProcessor_RequiresHash(t *testing.T) {
	_, err := New().Process(context.Background(), &domain.Document{ID: "d"}, []domain.Chunk{{Text: "t"}})
	assert.Error(t, err)
}

func TestProcessor_NoChunks(t *testing.T) {
	got, err := New().Process(context.Background(), &domain.Document{ID: "d"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
