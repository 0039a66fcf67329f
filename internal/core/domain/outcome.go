package domain

import (
	"fmt"
	"time"
)

// PipelineAction describes what the single-document pipeline did.
type PipelineAction string

const (
	// ActionUnchanged means the diff engine returned SKIP.
	ActionUnchanged PipelineAction = "unchanged"

	// ActionReindexed means obsolete chunks were retracted and new chunks upserted.
	ActionReindexed PipelineAction = "reindexed"

	// ActionRetracted means the document is gone upstream and its chunks were deleted.
	ActionRetracted PipelineAction = "retracted"
)

// PipelineOutcome is the result of running one document through the pipeline.
type PipelineOutcome struct {
	DocumentID   string
	ProviderKind ProviderKind
	Action       PipelineAction
	ContentHash  string
	ChunkIDs     []string

	// Retracted is the number of obsolete vectors deleted.
	Retracted int

	// Reason explains a retraction caused by the document vanishing upstream.
	Reason string
}

// WebhookResult is the result reported to the calling provider.
type WebhookResult string

const (
	// ResultNoChange means the document content did not change.
	ResultNoChange WebhookResult = "no-change"

	// ResultUpdated means the index was updated (reindexed or retracted).
	ResultUpdated WebhookResult = "updated"

	// ResultDuplicateIgnored means the event was debounced.
	ResultDuplicateIgnored WebhookResult = "duplicate-ignored"
)

// IngestResult is the outcome of one webhook event for one document.
type IngestResult struct {
	DocumentID   string         `json:"document_id"`
	ProviderKind ProviderKind   `json:"provider_kind"`
	Result       WebhookResult  `json:"result"`
	Action       PipelineAction `json:"action,omitempty"`
}

// ResultFor maps a pipeline action to the webhook result.
func ResultFor(action PipelineAction) WebhookResult {
	if action == ActionUnchanged {
		return ResultNoChange
	}
	return ResultUpdated
}

// CrawlStatus is the terminal state of one document in a bulk crawl.
type CrawlStatus string

const (
	// CrawlIndexed means the document went through the pipeline successfully.
	CrawlIndexed CrawlStatus = "INDEXED"

	// CrawlSkipped means the document was intentionally not indexed.
	CrawlSkipped CrawlStatus = "SKIPPED"

	// CrawlFailed means the document could not be indexed after retries.
	CrawlFailed CrawlStatus = "FAILED"
)

// Skip reasons.
const (
	ReasonUnchanged        = "unchanged"
	ReasonNotFound         = "not found"
	ReasonPermissionDenied = "permission denied"
)

// CrawlOutcome is the terminal state of one document in a bulk crawl.
type CrawlOutcome struct {
	DocumentID   string
	ProviderKind ProviderKind
	Status       CrawlStatus
	Reason       string
	Action       PipelineAction
}

// String formats the outcome as STATUS(reason).
func (o CrawlOutcome) String() string {
	if o.Reason == "" {
		return string(o.Status)
	}
	return fmt.Sprintf("%s(%s)", o.Status, o.Reason)
}

// CrawlSummary aggregates the outcomes of a bulk crawl.
type CrawlSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time

	// Discovered is the number of document IDs found across providers.
	Discovered int

	Indexed int
	Skipped int
	Failed  int

	// Outcomes holds one entry per processed document, in completion order.
	Outcomes []CrawlOutcome

	// ProviderErrors records providers whose discovery failed.
	ProviderErrors map[ProviderKind]string

	// Cancelled is set when the crawl stopped before processing every document.
	Cancelled bool
}

// Record adds an outcome to the summary counts.
func (s *CrawlSummary) Record(o CrawlOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case CrawlIndexed:
		s.Indexed++
	case CrawlSkipped:
		s.Skipped++
	case CrawlFailed:
		s.Failed++
	}
}

// Processed returns the number of documents with a terminal outcome.
func (s *CrawlSummary) Processed() int {
	return s.Indexed + s.Skipped + s.Failed
}

// Duration returns how long the crawl ran.
func (s *CrawlSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
