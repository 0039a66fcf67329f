// Package connectors holds the content providers the indexer reads from.
// Each subpackage implements driven.ContentProvider for one provider kind:
//
//   - notion: workspace pages, discovered through search and rendered from
//     their block tree
//   - github: repository files matching the configured extensions
//
// Providers are registered with services.ProviderRegistry at startup.
package connectors
