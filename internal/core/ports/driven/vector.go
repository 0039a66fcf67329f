package driven

import "context"

// Vector metadata keys attached to every upserted vector.
const (
	MetaDocumentID   = "document_id"
	MetaProviderKind = "provider_kind"
	MetaTitle        = "title"
	MetaSourceURL    = "source_url"
	MetaChunkIndex   = "chunk_index"
	MetaTextExcerpt  = "text_excerpt"
	MetaContentHash  = "content_hash"
	MetaChunkHash    = "chunk_hash"
	MetaLastEditedAt = "last_edited_at"
)

// VectorIndex stores embedding vectors keyed by chunk ID.
// Upsert and Delete are idempotent: upserting an existing ID overwrites it,
// deleting an unknown ID is a no-op.
type VectorIndex interface {
	// Upsert inserts or overwrites the given vectors.
	Upsert(ctx context.Context, records []VectorRecord) error

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// Query returns the k nearest vectors whose metadata matches every
	// key/value pair in filter.
	Query(ctx context.Context, vector []float32, k int, filter map[string]string) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorRecord is one vector to upsert.
type VectorRecord struct {
	// ID is the deterministic chunk ID.
	ID string

	// Vector is the embedding.
	Vector []float32

	// Metadata carries citation data (title, source URL, position).
	Metadata map[string]string
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched chunk ID.
	ID string

	// Score is the cosine similarity.
	Score float64

	// Metadata is the metadata stored with the vector.
	Metadata map[string]string
}
