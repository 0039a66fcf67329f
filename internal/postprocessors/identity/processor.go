// Package identity assigns deterministic identities to chunks.
//
// Chunk IDs are derived from the document ID, the document content hash and
// the chunk position, so any content change yields a disjoint set of IDs.
package identity

import (
	"context"
	"errors"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// errMissingHash is returned when the document has not been hashed yet.
var errMissingHash = errors.New("document has no content hash")

// Processor sets ID, Hash and Excerpt on every chunk.
type Processor struct {
	excerptLen int
}

// Option configures the identity processor.
type Option func(*Processor)

// WithExcerptLength sets the excerpt length in runes.
func WithExcerptLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.excerptLen = n
		}
	}
}

// New creates an identity processor.
func New(opts ...Option) *Processor {
	p := &Processor{excerptLen: domain.DefaultExcerptLen}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "identity"
}

// Process annotates chunks in place and returns them.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}
	if doc.ContentHash == "" {
		return nil, errMissingHash
	}

	for i := range chunks {
		chunks[i].Index = i
		chunks[i].DocumentID = doc.ID
		chunks[i].ID = domain.ChunkID(doc.ID, doc.ContentHash, i)
		chunks[i].Hash = domain.ChunkHash(chunks[i].Text)
		chunks[i].Excerpt = domain.Excerpt(chunks[i].Text, p.excerptLen)
	}
	return chunks, nil
}
