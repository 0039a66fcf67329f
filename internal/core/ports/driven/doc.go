// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ContentProvider: Discovers and fetches documents of one provider kind
//   - TextNormaliser: Produces canonical, redacted text
//   - PostProcessor / PostProcessorPipeline: Chunking and chunk identity
//   - IndexStateStore: Durable document → {hash, chunk IDs} mapping
//   - EmbeddingService: Converts chunk text into vectors
//   - VectorIndex: Upserts, deletes and queries vectors by chunk ID
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - EventPublisher: Announces committed index changes. When nil, no events are sent.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
