package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// IndexStateStore persists the per-document index state.
// It is the only mutable state shared between the crawler and the
// webhook controller. Records are keyed by document ID.
type IndexStateStore interface {
	// Get returns the record for a document, or domain.ErrNotFound.
	Get(ctx context.Context, documentID string) (*domain.IndexStateRecord, error)

	// Save writes the record, overwriting any existing one.
	Save(ctx context.Context, record *domain.IndexStateRecord) error

	// List returns every record, ordered by document ID.
	List(ctx context.Context) ([]domain.IndexStateRecord, error)

	// Close releases resources.
	Close() error
}
