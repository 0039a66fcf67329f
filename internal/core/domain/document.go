package domain

import "time"

// Document represents one logical unit of source content after normalisation.
type Document struct {
	// ID is the provider-scoped document identity.
	ID string

	// ProviderKind is the kind of provider the document came from.
	ProviderKind ProviderKind

	// Title is the human-readable title used in citations.
	Title string

	// SourceURL is the upstream location used in citations.
	SourceURL string

	// CanonicalText is the normalised and redacted text.
	CanonicalText string

	// ContentHash is the SHA-256 hex digest of CanonicalText.
	ContentHash string

	// LastEditedAt is the upstream modification time when the provider reports one.
	LastEditedAt time.Time

	// LastSeenAt is when the document was last fetched.
	LastSeenAt time.Time

	// Metadata contains provider-specific key-value pairs.
	Metadata map[string]string
}

// Chunk represents one indexable segment of a document version.
type Chunk struct {
	// ID is the deterministic chunk identity, see ChunkID.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the 0-based position within the document.
	Index int

	// Text is the chunk content.
	Text string

	// Excerpt is a bounded preview of Text.
	Excerpt string

	// Hash is the SHA-256 hex digest of Text.
	Hash string
}
