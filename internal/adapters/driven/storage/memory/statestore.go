package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure IndexStateStore implements the interface.
var _ driven.IndexStateStore = (*IndexStateStore)(nil)

// IndexStateStore is an in-memory implementation of driven.IndexStateStore.
// Records are deep-copied on the way in and out.
type IndexStateStore struct {
	mu      sync.RWMutex
	records map[string]*domain.IndexStateRecord
}

// NewIndexStateStore creates a new in-memory index state store.
func NewIndexStateStore() *IndexStateStore {
	return &IndexStateStore{
		records: make(map[string]*domain.IndexStateRecord),
	}
}

// Get retrieves the record for a document.
func (s *IndexStateStore) Get(_ context.Context, documentID string) (*domain.IndexStateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

// Save stores or overwrites a record.
func (s *IndexStateStore) Save(_ context.Context, record *domain.IndexStateRecord) error {
	if record == nil || record.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.DocumentID] = record.Clone()
	return nil
}

// List returns all records ordered by document ID.
func (s *IndexStateStore) List(_ context.Context) ([]domain.IndexStateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.IndexStateRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

// Len returns the number of stored records.
func (s *IndexStateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *IndexStateStore) Close() error {
	return nil
}
