// Package memory provides an in-memory brute-force vector index.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	vector   []float32
	norm     float64
	metadata map[string]string
}

// Index keeps vectors in a map and scores queries by cosine similarity.
type Index struct {
	mu      sync.RWMutex
	entries map[string]entry
	dim     int
}

// New creates an empty index.
func New() *Index {
	return &Index{entries: make(map[string]entry)}
}

// Upsert inserts or overwrites vectors.
func (i *Index) Upsert(_ context.Context, records []driven.VectorRecord) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, rec := range records {
		if rec.ID == "" || len(rec.Vector) == 0 {
			return fmt.Errorf("%w: record %q has no id or vector", domain.ErrInvalidInput, rec.ID)
		}
		if i.dim != 0 && len(rec.Vector) != i.dim {
			return fmt.Errorf("%w: vector dimension %d, index has %d", domain.ErrInvalidInput, len(rec.Vector), i.dim)
		}
	}
	for _, rec := range records {
		if i.dim == 0 {
			i.dim = len(rec.Vector)
		}
		i.entries[rec.ID] = entry{
			vector:   append([]float32(nil), rec.Vector...),
			norm:     magnitude(rec.Vector),
			metadata: copyMeta(rec.Metadata),
		}
	}
	return nil
}

// Delete removes vectors by ID. Unknown IDs are ignored.
func (i *Index) Delete(_ context.Context, ids []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range ids {
		delete(i.entries, id)
	}
	return nil
}

// Query returns the k vectors most similar to vector among those whose
// metadata matches filter.
func (i *Index) Query(_ context.Context, vector []float32, k int, filter map[string]string) ([]driven.VectorHit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.entries) == 0 || k <= 0 {
		return nil, nil
	}
	if len(vector) != i.dim {
		return nil, fmt.Errorf("%w: query dimension %d, index has %d", domain.ErrInvalidInput, len(vector), i.dim)
	}
	qn := magnitude(vector)
	if qn == 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(i.entries))
	for id, e := range i.entries {
		if e.norm == 0 || !matches(e.metadata, filter) {
			continue
		}
		score := dot(vector, e.vector) / (qn * e.norm)
		if math.IsNaN(score) {
			continue
		}
		hits = append(hits, driven.VectorHit{ID: id, Score: score, Metadata: copyMeta(e.metadata)})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score == hits[b].Score {
			return hits[a].ID < hits[b].ID
		}
		return hits[a].Score > hits[b].Score
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Has reports whether id is stored.
func (i *Index) Has(id string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.entries[id]
	return ok
}

// IDs returns every stored ID, sorted.
func (i *Index) IDs() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ids := make([]string, 0, len(i.entries))
	for id := range i.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Metadata returns the metadata stored for id.
func (i *Index) Metadata(id string) (map[string]string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	e, ok := i.entries[id]
	if !ok {
		return nil, false
	}
	return copyMeta(e.metadata), true
}

// Len returns the number of stored vectors.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Close is a no-op.
func (i *Index) Close() error {
	return nil
}

func matches(meta, filter map[string]string) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}

func dot(a, b []float32) float64 {
	var sum float64
	for j := range a {
		sum += float64(a[j]) * float64(b[j])
	}
	return sum
}

func magnitude(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

func copyMeta(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
