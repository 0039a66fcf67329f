// Package jsonfile persists index state as a single JSON document on disk.
//
// Every Save rewrites the file through a temporary file and rename, so a
// crash leaves either the old or the new contents, never a partial write.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure IndexStateStore implements the interface.
var _ driven.IndexStateStore = (*IndexStateStore)(nil)

// fileFormat is the on-disk layout.
type fileFormat struct {
	Version int                                `json:"version"`
	Records map[string]domain.IndexStateRecord `json:"records"`
}

const formatVersion = 1

// IndexStateStore keeps records in memory and mirrors them to a file.
type IndexStateStore struct {
	mu      sync.RWMutex
	path    string
	records map[string]domain.IndexStateRecord
}

// NewIndexStateStore loads path if it exists, otherwise starts empty.
func NewIndexStateStore(path string) (*IndexStateStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty state file path", domain.ErrInvalidInput)
	}
	s := &IndexStateStore{path: path, records: make(map[string]domain.IndexStateRecord)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", path, err)
	}
	for id, rec := range f.Records {
		rec.DocumentID = id
		s.records[id] = rec
	}
	return s, nil
}

// Path returns the backing file path.
func (s *IndexStateStore) Path() string {
	return s.path
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

// Save stores the record and flushes the file.
func (s *IndexStateStore) Save(ctx context.Context, record *domain.IndexStateRecord) error {
	if record == nil || record.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rec := record.Clone()
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.records[rec.DocumentID]
	s.records[rec.DocumentID] = *rec
	if err := s.flush(); err != nil {
		if existed {
			s.records[rec.DocumentID] = prev
		} else {
			delete(s.records, rec.DocumentID)
		}
		return err
	}
	return nil
}

// List returns all records ordered by document ID.
func (s *IndexStateStore) List(_ context.Context) ([]domain.IndexStateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.IndexStateRecord, 0, len(ids))
	for _, id := range ids {
		rec := s.records[id]
		out = append(out, *rec.Clone())
	}
	return out, nil
}

// Close is a no-op; every Save is already durable.
func (s *IndexStateStore) Close() error {
	return nil
}

// flush writes the records atomically (caller must hold lock).
func (s *IndexStateStore) flush() error {
	data, err := json.MarshalIndent(fileFormat{Version: formatVersion, Records: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
