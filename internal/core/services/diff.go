package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// DiffEngine decides whether a document needs re-indexing by comparing a
// fresh content hash against the stored state. It is the only gate in
// front of the embedding provider.
type DiffEngine struct {
	state driven.IndexStateStore
}

// NewDiffEngine creates a diff engine over the given state store.
func NewDiffEngine(state driven.IndexStateStore) *DiffEngine {
	return &DiffEngine{state: state}
}

// Decide returns SKIP when the stored hash matches, otherwise REINDEX with
// the prior chunk IDs as the obsolete set. A stale record has already been
// retracted and contributes no obsolete IDs.
func (d *DiffEngine) Decide(ctx context.Context, documentID, contentHash string) (domain.Decision, error) {
	prior, err := d.state.Get(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Reindex(nil, nil), nil
	}
	if err != nil {
		return domain.Decision{}, fmt.Errorf("read index state: %w", err)
	}

	if prior.Stale {
		return domain.Reindex(prior, nil), nil
	}
	if prior.ContentHash != "" && prior.ContentHash == contentHash {
		return domain.Skip(prior), nil
	}
	return domain.Reindex(prior, prior.ChunkIDs), nil
}
