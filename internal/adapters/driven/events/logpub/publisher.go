// Package logpub is an EventPublisher that writes events to the log.
// It is used when no message bus is configured.
package logpub

import (
	"context"

	"go.uber.org/zap"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

var _ driven.EventPublisher = (*Publisher)(nil)

// Publisher logs each event at debug level.
type Publisher struct{}

// New returns a log publisher.
func New() *Publisher { return &Publisher{} }

// Publish logs the event.
func (p *Publisher) Publish(_ context.Context, e domain.IndexEvent) error {
	logger.L().Debug("index event",
		zap.String("type", string(e.Type)),
		zap.String("document_id", e.DocumentID),
		zap.Int("chunks", e.ChunkCount),
		zap.Int("retracted", e.Retracted),
	)
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error { return nil }
