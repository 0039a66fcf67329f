package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure StateService implements the interface.
var _ driving.StateInspector = (*StateService)(nil)

// StateService exposes the index state to operators.
type StateService struct {
	state   driven.IndexStateStore
	indexer driving.DocumentIndexer
}

// NewStateService creates a state service. The indexer is only needed for Purge.
func NewStateService(state driven.IndexStateStore, indexer driving.DocumentIndexer) *StateService {
	return &StateService{state: state, indexer: indexer}
}

// List returns every record, restricted to kind when it is non-empty.
func (s *StateService) List(ctx context.Context, kind domain.ProviderKind) ([]domain.IndexStateRecord, error) {
	records, err := s.state.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list index state: %w", err)
	}
	if kind == "" {
		return records, nil
	}

	filtered := make([]domain.IndexStateRecord, 0, len(records))
	for _, r := range records {
		if r.ProviderKind == kind {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Get returns the record for one document.
func (s *StateService) Get(ctx context.Context, documentID string) (*domain.IndexStateRecord, error) {
	return s.state.Get(ctx, documentID)
}

// Purge retracts every live document of a provider kind. It stops at the
// first failure and reports how many documents were retracted before it.
func (s *StateService) Purge(ctx context.Context, kind domain.ProviderKind) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: provider %q", domain.ErrUnsupportedType, kind)
	}
	if s.indexer == nil {
		return 0, errors.New("purge: indexer not configured")
	}

	records, err := s.List(ctx, kind)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, r := range records {
		if r.Stale && len(r.ChunkIDs) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		if _, err := s.indexer.Retract(ctx, r.DocumentID); err != nil {
			return purged, fmt.Errorf("retract %s: %w", r.DocumentID, err)
		}
		purged++
	}
	logger.Info("Purged %d %s documents", purged, kind)
	return purged, nil
}
