package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// ContentProvider enumerates and fetches documents of one provider kind.
// Pagination and authentication are handled inside the implementation.
type ContentProvider interface {
	// Kind returns the provider kind this implementation serves.
	Kind() domain.ProviderKind

	// Discover returns the IDs of every document in the corpus,
	// following continuation cursors until exhausted.
	Discover(ctx context.Context) ([]string, error)

	// Fetch returns the raw content of one document.
	// A document that no longer exists returns an error satisfying domain.IsGone.
	Fetch(ctx context.Context, documentID string) (*domain.RawDocument, error)

	// Close releases resources.
	Close() error
}

// ProviderSet resolves a ContentProvider by provider kind.
type ProviderSet interface {
	// Get returns the provider for kind, or domain.ErrUnsupportedType.
	Get(kind domain.ProviderKind) (ContentProvider, error)

	// Kinds returns the configured provider kinds.
	Kinds() []domain.ProviderKind
}
