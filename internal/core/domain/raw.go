package domain

import "time"

// RawDocument is what a content provider returns from Fetch,
// before normalisation.
type RawDocument struct {
	// ID is the provider-scoped document identity.
	ID string

	// ProviderKind is the kind of provider that fetched the document.
	ProviderKind ProviderKind

	// Title is the upstream title, possibly empty.
	Title string

	// SourceURL is the upstream location.
	SourceURL string

	// Text is the raw, un-normalised text content.
	Text string

	// LastEditedAt is the upstream modification time, zero when unknown.
	LastEditedAt time.Time

	// Metadata contains provider-specific key-value pairs.
	Metadata map[string]string
}
