// Package notion implements the workspace-page content provider.
//
// Pages shared with the integration are discovered through the search
// endpoint and fetched as markdown-like text built from their block tree.
// Archived pages are reported as gone so the indexer retracts them.
//
// Page IDs are canonical dashed UUIDs; IDs arriving without dashes (from
// URLs or webhook payloads) are normalised with NormalizePageID.
package notion
