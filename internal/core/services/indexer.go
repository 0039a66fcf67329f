package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
	"github.com/custodia-labs/sercha-indexer/internal/retry"
)

// Ensure Indexer implements the interface.
var _ driving.DocumentIndexer = (*Indexer)(nil)

// Indexer runs the single-document pipeline shared by the crawler and
// the webhook controller.
type Indexer struct {
	providers  driven.ProviderSet
	normaliser driven.TextNormaliser
	pipeline   driven.PostProcessorPipeline
	diff       *DiffEngine
	embedder   *BatchEmbedder
	vectors    driven.VectorIndex
	state      driven.IndexStateStore
	publisher  driven.EventPublisher

	fetchPolicy retry.Policy
	now         func() time.Time
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithPublisher sets the publisher notified after committed changes.
func WithPublisher(p driven.EventPublisher) IndexerOption {
	return func(ix *Indexer) {
		ix.publisher = p
	}
}

// WithFetchRetry sets the retry policy for provider fetches.
func WithFetchRetry(p retry.Policy) IndexerOption {
	return func(ix *Indexer) {
		ix.fetchPolicy = p
	}
}

// WithClock overrides the time source for state timestamps.
func WithClock(now func() time.Time) IndexerOption {
	return func(ix *Indexer) {
		ix.now = now
	}
}

// NewIndexer creates the single-document pipeline.
func NewIndexer(
	providers driven.ProviderSet,
	normaliser driven.TextNormaliser,
	pipeline driven.PostProcessorPipeline,
	embedder *BatchEmbedder,
	vectors driven.VectorIndex,
	state driven.IndexStateStore,
	opts ...IndexerOption,
) *Indexer {
	ix := &Indexer{
		providers:   providers,
		normaliser:  normaliser,
		pipeline:    pipeline,
		diff:        NewDiffEngine(state),
		embedder:    embedder,
		vectors:     vectors,
		state:       state,
		fetchPolicy: retry.DefaultPolicy(),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// IndexDocument fetches one document and brings the vector index in line
// with its current content.
//
//nolint:gocyclo // Sequential pipeline steps
func (ix *Indexer) IndexDocument(
	ctx context.Context, kind domain.ProviderKind, documentID string,
) (*domain.PipelineOutcome, error) {
	if documentID == "" {
		return nil, domain.ErrMissingDocumentID
	}
	if ix.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if ix.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	provider, err := ix.providers.Get(kind)
	if err != nil {
		return nil, err
	}

	// 1. Fetch, retrying transient failures
	raw, err := retry.DoValue(ctx, ix.fetchPolicy, "fetch "+documentID, func() (*domain.RawDocument, error) {
		return provider.Fetch(ctx, documentID)
	})
	if err != nil {
		if domain.IsGone(err) {
			return ix.retractGone(ctx, kind, documentID, err)
		}
		return nil, fmt.Errorf("fetch %s: %w", documentID, err)
	}

	// 2. Normalise and hash
	doc := ix.buildDocument(kind, documentID, raw)

	// 3. Diff against stored state
	decision, err := ix.diff.Decide(ctx, documentID, doc.ContentHash)
	if err != nil {
		return nil, err
	}
	if decision.Kind == domain.DecisionSkip {
		logger.Debug("%s unchanged (%s)", documentID, shortHash(doc.ContentHash))
		return &domain.PipelineOutcome{
			DocumentID:   documentID,
			ProviderKind: kind,
			Action:       domain.ActionUnchanged,
			ContentHash:  doc.ContentHash,
			ChunkIDs:     decision.Prior.ChunkIDs,
		}, nil
	}

	// 4. Chunk and assign identities
	chunks, err := ix.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", documentID, err)
	}

	// 5. Embed everything before touching the vector index
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", documentID, err)
	}

	// 6. Retract obsolete chunks, then upsert the new ones
	if len(decision.ObsoleteChunkIDs) > 0 {
		if err := ix.vectors.Delete(ctx, decision.ObsoleteChunkIDs); err != nil {
			return nil, fmt.Errorf("%w: delete obsolete chunks of %s: %w", domain.ErrVectorWrite, documentID, err)
		}
	}

	chunkIDs := make([]string, len(chunks))
	records := make([]driven.VectorRecord, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ID
		records[i] = driven.VectorRecord{ID: c.ID, Vector: vectors[i], Metadata: chunkMetadata(doc, c)}
	}

	if len(records) > 0 {
		if err := ix.vectors.Upsert(ctx, records); err != nil {
			// Keep the new IDs with no hash so the next run reindexes
			// and clears anything the failed upsert left behind.
			partial := ix.record(doc, "", chunkIDs)
			if saveErr := ix.state.Save(ctx, partial); saveErr != nil {
				logger.Error("save partial state for %s: %v", documentID, saveErr)
			}
			return nil, fmt.Errorf("%w: upsert chunks of %s: %w", domain.ErrVectorWrite, documentID, err)
		}
	}

	// 7. Persist state
	if err := ix.state.Save(ctx, ix.record(doc, doc.ContentHash, chunkIDs)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrStateWrite, documentID, err)
	}

	outcome := &domain.PipelineOutcome{
		DocumentID:   documentID,
		ProviderKind: kind,
		Action:       domain.ActionReindexed,
		ContentHash:  doc.ContentHash,
		ChunkIDs:     chunkIDs,
		Retracted:    len(decision.ObsoleteChunkIDs),
	}
	logger.Debug("%s reindexed: %d chunks, %d retracted", documentID, len(chunkIDs), outcome.Retracted)
	ix.publish(ctx, domain.EventReindexed, outcome)
	return outcome, nil
}

// Retract removes every chunk of a document and marks its state stale.
func (ix *Indexer) Retract(ctx context.Context, documentID string) (*domain.PipelineOutcome, error) {
	if ix.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	prior, err := ix.state.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("read index state: %w", err)
	}
	return ix.retract(ctx, prior)
}

// retractGone handles a fetch that reported the document as gone.
func (ix *Indexer) retractGone(
	ctx context.Context, kind domain.ProviderKind, documentID string, cause error,
) (*domain.PipelineOutcome, error) {
	prior, err := ix.state.Get(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentAbsent, documentID, cause)
	}
	if err != nil {
		return nil, fmt.Errorf("read index state: %w", err)
	}
	if prior.ProviderKind == "" {
		prior.ProviderKind = kind
	}
	logger.Info("%s gone upstream (%s), retracting", documentID, domain.GoneReason(cause))
	outcome, err := ix.retract(ctx, prior)
	if err != nil {
		return nil, err
	}
	outcome.Reason = domain.GoneReason(cause)
	return outcome, nil
}

func (ix *Indexer) retract(ctx context.Context, prior *domain.IndexStateRecord) (*domain.PipelineOutcome, error) {
	outcome := &domain.PipelineOutcome{
		DocumentID:   prior.DocumentID,
		ProviderKind: prior.ProviderKind,
		Action:       domain.ActionRetracted,
		Retracted:    len(prior.ChunkIDs),
	}
	if prior.Stale && len(prior.ChunkIDs) == 0 {
		return outcome, nil
	}

	if len(prior.ChunkIDs) > 0 {
		if err := ix.vectors.Delete(ctx, prior.ChunkIDs); err != nil {
			return nil, fmt.Errorf("%w: retract %s: %w", domain.ErrVectorWrite, prior.DocumentID, err)
		}
	}

	rec := prior.Clone()
	rec.ContentHash = ""
	rec.ChunkIDs = nil
	rec.Stale = true
	rec.UpdatedAt = ix.now()
	if err := ix.state.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrStateWrite, prior.DocumentID, err)
	}

	ix.publish(ctx, domain.EventRetracted, outcome)
	return outcome, nil
}

func (ix *Indexer) buildDocument(kind domain.ProviderKind, documentID string, raw *domain.RawDocument) *domain.Document {
	canonical := ix.normaliser.Canonicalise(raw.Text)
	return &domain.Document{
		ID:            documentID,
		ProviderKind:  kind,
		Title:         raw.Title,
		SourceURL:     raw.SourceURL,
		CanonicalText: canonical,
		ContentHash:   domain.ContentHash(canonical),
		LastEditedAt:  raw.LastEditedAt,
		LastSeenAt:    ix.now(),
		Metadata:      raw.Metadata,
	}
}

func (ix *Indexer) record(doc *domain.Document, hash string, chunkIDs []string) *domain.IndexStateRecord {
	return &domain.IndexStateRecord{
		DocumentID:   doc.ID,
		ProviderKind: doc.ProviderKind,
		Title:        doc.Title,
		SourceURL:    doc.SourceURL,
		ContentHash:  hash,
		ChunkIDs:     chunkIDs,
		UpdatedAt:    ix.now(),
	}
}

// publish is best-effort; the index change is already committed.
func (ix *Indexer) publish(ctx context.Context, t domain.IndexEventType, o *domain.PipelineOutcome) {
	if ix.publisher == nil {
		return
	}
	event := domain.IndexEvent{
		ID:           uuid.NewString(),
		Type:         t,
		DocumentID:   o.DocumentID,
		ProviderKind: o.ProviderKind,
		ContentHash:  o.ContentHash,
		ChunkCount:   len(o.ChunkIDs),
		Retracted:    o.Retracted,
		OccurredAt:   ix.now(),
	}
	if err := ix.publisher.Publish(ctx, event); err != nil {
		logger.Warn("publish %s event for %s: %v", t, o.DocumentID, err)
	}
}

func chunkMetadata(doc *domain.Document, c domain.Chunk) map[string]string {
	meta := map[string]string{
		driven.MetaDocumentID:   doc.ID,
		driven.MetaProviderKind: string(doc.ProviderKind),
		driven.MetaTitle:        doc.Title,
		driven.MetaSourceURL:    doc.SourceURL,
		driven.MetaChunkIndex:   strconv.Itoa(c.Index),
		driven.MetaTextExcerpt:  c.Excerpt,
		driven.MetaContentHash:  doc.ContentHash,
		driven.MetaChunkHash:    c.Hash,
	}
	if !doc.LastEditedAt.IsZero() {
		meta[driven.MetaLastEditedAt] = doc.LastEditedAt.UTC().Format(time.RFC3339)
	}
	return meta
}

func shortHash(h string) string {
	if len(h) > domain.HashPrefixLen {
		return h[:domain.HashPrefixLen]
	}
	return h
}
