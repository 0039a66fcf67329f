// Package github implements the repo-file content provider.
//
// A repo-file document is one text file at a branch and path of a GitHub
// repository, identified as owner/repo@branch:path. Only files with one of
// the configured extensions (default .md) and at most 1MB are indexed.
//
// # Discovery
//
// Configured repositories are crawled at their pinned branch, or at the
// repository default branch when none is given ("owner/repo" vs
// "owner/repo@branch"). With no repositories configured every repository
// the token can access is crawled, skipping archived, disabled and empty
// ones. Each repository is listed with one recursive tree request.
//
// # Webhooks
//
// PushParser turns push deliveries into document IDs. Added, modified and
// removed paths are all dispatched; removed files fail to fetch and are
// retracted by the indexer. When a webhook secret is configured the
// X-Hub-Signature-256 header must verify.
//
// # Rate limiting
//
// Requests pass a token bucket and pause when the quota reported in
// X-RateLimit-* headers drops below MinBuffer. Rate-limit responses become
// transient domain.UpstreamError values carrying the reset delay.
package github
