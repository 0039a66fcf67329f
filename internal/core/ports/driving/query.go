package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// QueryService embeds free text and queries the vector index.
// It serves operators debugging the index; ranking is left to the
// downstream answer-generation service.
type QueryService interface {
	// Query returns the k nearest chunks for text, restricted by filter.
	Query(ctx context.Context, text string, k int, filter map[string]string) ([]driven.VectorHit, error)
}
