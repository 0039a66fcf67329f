package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// EventPublisher announces committed index changes to downstream consumers.
// Publishing is best-effort: a failure never rolls back an index change.
type EventPublisher interface {
	// Publish sends the event.
	Publish(ctx context.Context, event domain.IndexEvent) error

	// Close flushes and releases resources.
	Close() error
}
