package domain

import "time"

// IndexEventType identifies the kind of committed index change.
type IndexEventType string

const (
	// EventReindexed is emitted after a document's new chunks are committed.
	EventReindexed IndexEventType = "reindexed"

	// EventRetracted is emitted after a document's chunks are removed.
	EventRetracted IndexEventType = "retracted"
)

// IndexEvent announces a committed change to the vector index.
type IndexEvent struct {
	ID           string         `json:"id"`
	Type         IndexEventType `json:"type"`
	DocumentID   string         `json:"document_id"`
	ProviderKind ProviderKind   `json:"provider_kind"`
	ContentHash  string         `json:"content_hash,omitempty"`
	ChunkCount   int            `json:"chunk_count"`
	Retracted    int            `json:"retracted"`
	OccurredAt   time.Time      `json:"occurred_at"`
}
