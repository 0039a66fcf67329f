package services

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure WebhookController implements the interface.
var _ driving.WebhookIngestor = (*WebhookController)(nil)

// DefaultDebounceWindow suppresses repeat events for the same document.
const DefaultDebounceWindow = 10 * time.Second

// WebhookController debounces change events and dispatches them to the
// single-document pipeline.
type WebhookController struct {
	indexer driving.DocumentIndexer
	window  time.Duration
	recent  *cache.Cache

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewWebhookController creates a controller with the given debounce window.
// A non-positive window uses DefaultDebounceWindow.
func NewWebhookController(indexer driving.DocumentIndexer, window time.Duration) *WebhookController {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &WebhookController{
		indexer: indexer,
		window:  window,
		recent:  cache.New(window, 2*window),

		inFlight: make(map[string]struct{}),
	}
}

// Window returns the debounce window.
func (c *WebhookController) Window() time.Duration {
	return c.window
}

// Ingest dispatches the event unless the same document was dispatched
// within the debounce window. A failed dispatch releases the debounce
// entry so the provider's redelivery is processed. An event for a document
// whose dispatch is still running returns ErrDispatchInFlight rather than
// being acknowledged, since that dispatch may yet fail.
func (c *WebhookController) Ingest(
	ctx context.Context, kind domain.ProviderKind, documentID string,
) (*domain.IngestResult, error) {
	if documentID == "" {
		return nil, domain.ErrMissingDocumentID
	}

	key := debounceKey(kind, documentID)
	c.mu.Lock()
	if _, running := c.inFlight[key]; running {
		c.mu.Unlock()
		logger.Debug("webhook: %s already dispatching", documentID)
		return nil, domain.ErrDispatchInFlight
	}
	if err := c.recent.Add(key, time.Now(), c.window); err != nil {
		c.mu.Unlock()
		logger.Debug("webhook: %s debounced", documentID)
		return &domain.IngestResult{
			DocumentID:   documentID,
			ProviderKind: kind,
			Result:       domain.ResultDuplicateIgnored,
		}, nil
	}

	c.inFlight[key] = struct{}{}
	c.mu.Unlock()

	outcome, err := c.indexer.IndexDocument(ctx, kind, documentID)

	c.mu.Lock()
	delete(c.inFlight, key)
	if err != nil {
		c.recent.Delete(key)
	}
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return &domain.IngestResult{
		DocumentID:   documentID,
		ProviderKind: kind,
		Result:       domain.ResultFor(outcome.Action),
		Action:       outcome.Action,
	}, nil
}

// dispatching reports whether a dispatch for the document is running.
func (c *WebhookController) dispatching(kind domain.ProviderKind, documentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[debounceKey(kind, documentID)]
	return ok
}

func debounceKey(kind domain.ProviderKind, documentID string) string {
	return string(kind) + "|" + documentID
}
