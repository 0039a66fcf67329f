// Package services implements the driving port interfaces.
// Services contain the core indexing logic (diff, embed, retract, upsert)
// and orchestrate calls to driven ports (adapters).
//
// The Indexer is the single-document pipeline; the CrawlOrchestrator and
// the WebhookController are its two callers.
package services
