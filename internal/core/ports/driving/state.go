package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// StateInspector exposes the index state for operators.
type StateInspector interface {
	// List returns every state record, optionally restricted to one provider kind.
	List(ctx context.Context, kind domain.ProviderKind) ([]domain.IndexStateRecord, error)

	// Get returns the record for one document.
	Get(ctx context.Context, documentID string) (*domain.IndexStateRecord, error)

	// Purge retracts every non-stale document of a provider kind and
	// returns the number of documents retracted.
	Purge(ctx context.Context, kind domain.ProviderKind) (int, error)
}
