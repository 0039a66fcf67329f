package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// Crawler runs bulk crawls over whole provider corpora.
type Crawler interface {
	// Crawl discovers and indexes every document of the given provider
	// kinds, or of every configured provider when none are given.
	// Individual document failures are reported in the summary, not as an error.
	Crawl(ctx context.Context, opts CrawlOptions, kinds ...domain.ProviderKind) (*domain.CrawlSummary, error)

	// Status returns live progress for a provider kind.
	Status(ctx context.Context, kind domain.ProviderKind) (*CrawlStatus, error)
}

// CrawlOptions tunes a single crawl.
type CrawlOptions struct {
	// Limit caps the number of documents per provider. Zero means no limit.
	Limit int

	// OnOutcome, when set, is called once per document as it finishes.
	// Calls are serialised.
	OnOutcome func(domain.CrawlOutcome)
}

// CrawlStatus represents the current state of a crawl for one provider.
type CrawlStatus struct {
	// ProviderKind identifies the provider.
	ProviderKind domain.ProviderKind

	// Running indicates if the crawl is in progress.
	Running bool

	// Discovered is the number of document IDs found.
	Discovered int

	// DocumentsProcessed is the count of documents with a terminal outcome.
	DocumentsProcessed int

	// ErrorCount is the number of FAILED documents.
	ErrorCount int
}
