package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
	"github.com/custodia-labs/sercha-indexer/internal/retry"
)

// Ensure CrawlOrchestrator implements the interface.
var _ driving.Crawler = (*CrawlOrchestrator)(nil)

// DefaultCrawlWorkers is the worker pool width when none is configured.
const DefaultCrawlWorkers = 4

// CrawlOrchestrator runs bulk crawls over whole provider corpora on a
// bounded worker pool.
type CrawlOrchestrator struct {
	providers      driven.ProviderSet
	indexer        driving.DocumentIndexer
	workers        int
	discoverPolicy retry.Policy

	// Status tracking
	mu           sync.RWMutex
	activeCrawls map[domain.ProviderKind]*driving.CrawlStatus
}

// CrawlerOption configures a CrawlOrchestrator.
type CrawlerOption func(*CrawlOrchestrator)

// WithWorkers sets the number of documents processed concurrently.
func WithWorkers(n int) CrawlerOption {
	return func(c *CrawlOrchestrator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithDiscoverRetry sets the retry policy for discovery.
func WithDiscoverRetry(p retry.Policy) CrawlerOption {
	return func(c *CrawlOrchestrator) {
		c.discoverPolicy = p
	}
}

// NewCrawlOrchestrator creates a crawler over the given providers.
func NewCrawlOrchestrator(
	providers driven.ProviderSet, indexer driving.DocumentIndexer, opts ...CrawlerOption,
) *CrawlOrchestrator {
	c := &CrawlOrchestrator{
		providers:      providers,
		indexer:        indexer,
		workers:        DefaultCrawlWorkers,
		discoverPolicy: retry.DefaultPolicy(),
		activeCrawls:   make(map[domain.ProviderKind]*driving.CrawlStatus),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Workers returns the worker pool width.
func (c *CrawlOrchestrator) Workers() int {
	return c.workers
}

// Crawl indexes every document of the given kinds, or of every configured
// provider when none are given. Only an unknown kind or a cancelled
// context before any work is returned as an error; per-document and
// per-provider failures end up in the summary.
func (c *CrawlOrchestrator) Crawl(
	ctx context.Context, opts driving.CrawlOptions, kinds ...domain.ProviderKind,
) (*domain.CrawlSummary, error) {
	if len(kinds) == 0 {
		kinds = c.providers.Kinds()
	}
	for _, kind := range kinds {
		if _, err := c.providers.Get(kind); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &domain.CrawlSummary{
		StartedAt:      time.Now(),
		ProviderErrors: make(map[domain.ProviderKind]string),
	}
	for _, kind := range kinds {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		c.crawlProvider(ctx, kind, opts, summary)
	}
	summary.FinishedAt = time.Now()

	logger.Info("Crawl complete: %d discovered, %d indexed, %d skipped, %d failed in %s",
		summary.Discovered, summary.Indexed, summary.Skipped, summary.Failed,
		summary.Duration().Round(time.Millisecond))
	return summary, nil
}

// Status returns live progress for a provider kind.
func (c *CrawlOrchestrator) Status(_ context.Context, kind domain.ProviderKind) (*driving.CrawlStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if status, ok := c.activeCrawls[kind]; ok {
		cp := *status
		return &cp, nil
	}
	return &driving.CrawlStatus{ProviderKind: kind}, nil
}

func (c *CrawlOrchestrator) crawlProvider(
	ctx context.Context, kind domain.ProviderKind, opts driving.CrawlOptions, summary *domain.CrawlSummary,
) {
	logger.Section("Crawl " + string(kind))

	provider, err := c.providers.Get(kind)
	if err != nil {
		summary.ProviderErrors[kind] = err.Error()
		return
	}

	ids, err := retry.DoValue(ctx, c.discoverPolicy, "discover "+string(kind), func() ([]string, error) {
		return provider.Discover(ctx)
	})
	if err != nil {
		logger.Error("discover %s: %v", kind, err)
		summary.ProviderErrors[kind] = err.Error()
		return
	}
	if opts.Limit > 0 && len(ids) > opts.Limit {
		ids = ids[:opts.Limit]
	}
	summary.Discovered += len(ids)
	logger.Info("Crawling %d %s documents with %d workers", len(ids), kind, c.workers)

	status := &driving.CrawlStatus{ProviderKind: kind, Running: true, Discovered: len(ids)}
	c.setStatus(kind, status)
	defer c.clearStatus(kind)

	var mu sync.Mutex
	record := func(o domain.CrawlOutcome) {
		mu.Lock()
		defer mu.Unlock()
		summary.Record(o)
		c.mu.Lock()
		status.DocumentsProcessed++
		if o.Status == domain.CrawlFailed {
			status.ErrorCount++
		}
		c.mu.Unlock()
		if opts.OnOutcome != nil {
			opts.OnOutcome(o)
		}
	}

	// Cancellation stops scheduling; documents already started run to
	// completion so none is left half-indexed.
	docCtx := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			record(c.crawlDocument(docCtx, kind, id))
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		summary.Cancelled = true
		logger.Warn("crawl of %s cancelled after %d of %d documents", kind, status.DocumentsProcessed, len(ids))
	}
}

// crawlDocument runs one document and maps the result to a terminal outcome.
func (c *CrawlOrchestrator) crawlDocument(ctx context.Context, kind domain.ProviderKind, id string) domain.CrawlOutcome {
	o := domain.CrawlOutcome{DocumentID: id, ProviderKind: kind}

	result, err := c.indexer.IndexDocument(ctx, kind, id)
	switch {
	case err == nil:
		o.Action = result.Action
		switch result.Action {
		case domain.ActionUnchanged:
			o.Status = domain.CrawlSkipped
			o.Reason = domain.ReasonUnchanged
		case domain.ActionRetracted:
			o.Status = domain.CrawlSkipped
			o.Reason = result.Reason
			if o.Reason == "" {
				o.Reason = domain.ReasonNotFound
			}
		default:
			o.Status = domain.CrawlIndexed
		}
	case errors.Is(err, domain.ErrDocumentAbsent):
		o.Status = domain.CrawlSkipped
		o.Reason = domain.GoneReason(err)
	default:
		o.Status = domain.CrawlFailed
		o.Reason = failureReason(err)
		logger.Warn("index %s: %v", id, err)
	}

	logger.Debug("%s %s", id, o)
	return o
}

func failureReason(err error) string {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return fmt.Sprintf("retries exhausted: %v", exhausted.Err)
	}
	return err.Error()
}

func (c *CrawlOrchestrator) setStatus(kind domain.ProviderKind, status *driving.CrawlStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeCrawls[kind] = status
}

func (c *CrawlOrchestrator) clearStatus(kind domain.ProviderKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.activeCrawls, kind)
}
