package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// DocumentIndexer runs single documents through the indexing pipeline.
type DocumentIndexer interface {
	// IndexDocument fetches a document and runs normalise → chunk/hash →
	// diff → conditionally embed/delete/upsert → persist state.
	// A document gone upstream is retracted when it has prior state;
	// without prior state the error satisfies errors.Is(err, domain.ErrDocumentAbsent).
	IndexDocument(ctx context.Context, kind domain.ProviderKind, documentID string) (*domain.PipelineOutcome, error)

	// Retract deletes every chunk of a document from the vector index and
	// marks its state stale. Returns domain.ErrNotFound without prior state.
	Retract(ctx context.Context, documentID string) (*domain.PipelineOutcome, error)
}
