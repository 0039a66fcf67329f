package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// WebhookIngestor handles single-document change events.
type WebhookIngestor interface {
	// Ingest debounces and dispatches one change event.
	// An empty documentID returns domain.ErrMissingDocumentID.
	Ingest(ctx context.Context, kind domain.ProviderKind, documentID string) (*domain.IngestResult, error)
}
