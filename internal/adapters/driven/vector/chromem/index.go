// Package chromem provides a VectorIndex backed by chromem-go, an embedded
// vector database that can optionally persist to disk.
package chromem

import (
	"context"
	"errors"
	"fmt"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "sercha_chunks"

// errNoEmbedder is returned if chromem is ever asked to embed text itself.
// Vectors are always computed by the embedding service before upsert.
var errNoEmbedder = errors.New("chromem: documents must carry embeddings")

// Config configures the chromem index.
type Config struct {
	// Path enables persistence when set.
	Path string

	// Compress gzips persisted documents.
	Compress bool

	// Collection is the collection name.
	Collection string

	// Concurrency bounds parallel document writes.
	Concurrency int
}

// Index stores chunk vectors in a chromem collection.
type Index struct {
	db          *chromem.DB
	collection  *chromem.Collection
	concurrency int
}

// New opens (or creates) the chromem database and collection.
func New(cfg Config) (*Index, error) {
	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path != "" {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}
	collection, err := db.GetOrCreateCollection(name, map[string]string{"hnsw:space": "cosine"}, refuseEmbedding)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", name, err)
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 4
	}
	return &Index{db: db, collection: collection, concurrency: concurrency}, nil
}

func refuseEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errNoEmbedder
}

// Upsert adds or overwrites documents. chromem replaces documents by ID.
func (i *Index) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for n, rec := range records {
		if len(rec.Vector) == 0 {
			return fmt.Errorf("%w: record %q has no vector", domain.ErrInvalidInput, rec.ID)
		}
		docs[n] = chromem.Document{
			ID:        rec.ID,
			Metadata:  rec.Metadata,
			Embedding: append([]float32(nil), rec.Vector...),
			Content:   rec.Metadata[driven.MetaTextExcerpt],
		}
	}
	if err := i.collection.AddDocuments(ctx, docs, i.concurrency); err != nil {
		return fmt.Errorf("chromem upsert: %w", err)
	}
	return nil
}

// Delete removes documents by ID. Unknown IDs are ignored.
func (i *Index) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := i.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("chromem delete: %w", err)
	}
	return nil
}

// Query returns the k nearest documents matching filter.
func (i *Index) Query(ctx context.Context, vector []float32, k int, filter map[string]string) ([]driven.VectorHit, error) {
	n := k
	if count := i.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	var where map[string]string
	if len(filter) > 0 {
		where = filter
	}
	results, err := i.collection.QueryEmbedding(ctx, vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]driven.VectorHit, len(results))
	for j, r := range results {
		hits[j] = driven.VectorHit{
			ID:       r.ID,
			Score:    float64(r.Similarity),
			Metadata: r.Metadata,
		}
	}
	return hits, nil
}

// Count returns the number of stored vectors.
func (i *Index) Count() int {
	return i.collection.Count()
}

// Close is a no-op; persistent databases write through on every change.
func (i *Index) Close() error {
	return nil
}
