package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// DefaultQueryLimit is used when k is not positive.
const DefaultQueryLimit = 10

// QueryService embeds free text and queries the vector index.
type QueryService struct {
	embedding driven.EmbeddingService
	vectors   driven.VectorIndex
}

// NewQueryService creates a query service.
func NewQueryService(embedding driven.EmbeddingService, vectors driven.VectorIndex) *QueryService {
	return &QueryService{embedding: embedding, vectors: vectors}
}

// Query returns the k nearest chunks for text.
func (s *QueryService) Query(
	ctx context.Context, text string, k int, filter map[string]string,
) ([]driven.VectorHit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []driven.VectorHit{}, nil
	}
	if s.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if k <= 0 {
		k = DefaultQueryLimit
	}

	logger.Section("Query")
	logger.Debug("Query: %q, k=%d, filter=%v", text, k, filter)

	vec, err := s.embedding.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.vectors.Query(ctx, vec, k, filter)
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}
	logger.Debug("Query returned %d hits", len(hits))
	return hits, nil
}
