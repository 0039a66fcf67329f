package domain

import "time"

// IndexStateRecord is the persisted view of what the vector index holds
// for a document. After a pipeline run completes, ChunkIDs equals the set
// of vector IDs live in the index for DocumentID.
type IndexStateRecord struct {
	// DocumentID is the provider-scoped document identity.
	DocumentID string `json:"document_id"`

	// ProviderKind is the provider the document belongs to.
	ProviderKind ProviderKind `json:"provider_kind"`

	// Title is the document title at the last successful run.
	Title string `json:"title"`

	// SourceURL is the upstream location at the last successful run.
	SourceURL string `json:"source_url,omitempty"`

	// ContentHash is the hash of the canonical text that produced ChunkIDs.
	// Empty after a retraction that was not followed by a successful upsert.
	ContentHash string `json:"content_hash"`

	// ChunkIDs is the ordered list of chunk IDs live in the vector index.
	ChunkIDs []string `json:"chunk_ids"`

	// Stale is set when the document disappeared upstream and its chunks were retracted.
	Stale bool `json:"stale,omitempty"`

	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the record.
func (r *IndexStateRecord) Clone() *IndexStateRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.ChunkIDs != nil {
		c.ChunkIDs = make([]string, len(r.ChunkIDs))
		copy(c.ChunkIDs, r.ChunkIDs)
	}
	return &c
}
