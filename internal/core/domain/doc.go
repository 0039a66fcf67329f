// Package domain defines the core entities of the indexer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: one logical unit of source content (page or repo file)
//   - Chunk: an indexable, deterministically identified segment
//   - IndexStateRecord: what the vector index holds for a document
//   - Decision: the diff engine's verdict for a fresh content hash
//   - CrawlOutcome / PipelineOutcome: per-document results
//
// Chunk identity is derived from the document ID, the first eight hex
// characters of the content hash and the zero-padded chunk index, so a
// content change always produces a disjoint set of chunk IDs.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
