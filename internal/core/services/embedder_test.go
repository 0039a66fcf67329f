package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("chunk text %d", i)
	}
	return out
}

func TestBatchEmbedder_Batches(t *testing.T) {
	emb := newMockEmbedding()
	e := NewBatchEmbedder(emb, WithBatchSize(4), WithEmbedRetry(fastRetry()))

	in := texts(10)
	got, err := e.Embed(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, got, 10)

	require.Len(t, emb.batches, 3)
	assert.Len(t, emb.batches[0], 4)
	assert.Len(t, emb.batches[1], 4)
	assert.Len(t, emb.batches[2], 2)

	for i, text := range in {
		assert.Equal(t, emb.vector(text), got[i], "vector %d out of order", i)
	}
}

func TestBatchEmbedder_Defaults(t *testing.T) {
	e := NewBatchEmbedder(newMockEmbedding(), WithBatchSize(0))
	assert.Equal(t, DefaultEmbedBatchSize, e.BatchSize())
}

func TestBatchEmbedder_Empty(t *testing.T) {
	emb := newMockEmbedding()
	got, err := NewBatchEmbedder(emb).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, emb.calls())
}

func TestBatchEmbedder_CountMismatch(t *testing.T) {
	emb := newMockEmbedding()
	emb.short = true

	_, err := NewBatchEmbedder(emb, WithEmbedRetry(fastRetry())).Embed(context.Background(), texts(3))
	assert.ErrorIs(t, err, domain.ErrEmbeddingCountMismatch)
}

func TestBatchEmbedder_RetriesTransient(t *testing.T) {
	emb := newMockEmbedding()
	emb.errs = []error{&domain.UpstreamError{Provider: "mock", Op: "embed", StatusCode: 429}}

	got, err := NewBatchEmbedder(emb, WithEmbedRetry(fastRetry())).Embed(context.Background(), texts(2))
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, emb.calls())
}

func TestBatchEmbedder_PermanentNotRetried(t *testing.T) {
	emb := newMockEmbedding()
	emb.errs = []error{&domain.UpstreamError{Provider: "mock", Op: "embed", StatusCode: 400}}

	_, err := NewBatchEmbedder(emb, WithEmbedRetry(fastRetry())).Embed(context.Background(), texts(2))
	assert.Error(t, err)
	assert.Equal(t, 1, emb.calls())
}

func TestBatchEmbedder_NoService(t *testing.T) {
	_, err := NewBatchEmbedder(nil).Embed(context.Background(), texts(1))
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
