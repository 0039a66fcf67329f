package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
	"github.com/custodia-labs/sercha-indexer/internal/retry"
)

// DefaultEmbedBatchSize is the number of texts sent per provider request.
const DefaultEmbedBatchSize = 32

// BatchEmbedder splits texts into provider-sized batches and guarantees
// one vector per text, in input order.
type BatchEmbedder struct {
	service   driven.EmbeddingService
	batchSize int
	policy    retry.Policy
}

// EmbedderOption configures a BatchEmbedder.
type EmbedderOption func(*BatchEmbedder)

// WithBatchSize sets the maximum texts per request.
func WithBatchSize(n int) EmbedderOption {
	return func(e *BatchEmbedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithEmbedRetry sets the retry policy applied to each batch.
func WithEmbedRetry(p retry.Policy) EmbedderOption {
	return func(e *BatchEmbedder) {
		e.policy = p
	}
}

// NewBatchEmbedder wraps an embedding service.
func NewBatchEmbedder(service driven.EmbeddingService, opts ...EmbedderOption) *BatchEmbedder {
	e := &BatchEmbedder{
		service:   service,
		batchSize: DefaultEmbedBatchSize,
		policy:    retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BatchSize returns the configured batch size.
func (e *BatchEmbedder) BatchSize() int {
	return e.batchSize
}

// Embed returns one vector per text. Any count mismatch fails the whole call
// with domain.ErrEmbeddingCountMismatch so no vector is ever assigned to the
// wrong chunk.
func (e *BatchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.service == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		got, err := retry.DoValue(ctx, e.policy, "embed", func() ([][]float32, error) {
			return e.service.EmbedBatch(ctx, batch)
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(got) != len(batch) {
			return nil, fmt.Errorf("%w: requested %d, got %d", domain.ErrEmbeddingCountMismatch, len(batch), len(got))
		}
		vectors = append(vectors, got...)
	}

	logger.Debug("embedded %d texts with %s", len(texts), e.service.ModelName())
	return vectors, nil
}
