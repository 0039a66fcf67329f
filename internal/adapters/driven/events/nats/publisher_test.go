package nats

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "sercha.index.reindexed", Subject(DefaultSubjectPrefix, domain.EventReindexed))
	assert.Equal(t, "x.retracted", Subject("x", domain.EventRetracted))
}

func TestPublisher_Integration(t *testing.T) {
	url := os.Getenv("SERCHA_TEST_NATS_URL")
	if url == "" {
		t.Skip("SERCHA_TEST_NATS_URL not set")
	}
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	prefix := "sercha.test." + suffix

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()
	msgs := make(chan *nats.Msg, 1)
	s, err := sub.ChanSubscribe(prefix+".>", msgs)
	require.NoError(t, err)
	defer s.Unsubscribe()

	pub, err := NewPublisher(ctx, Config{URL: url, Stream: "SERCHA_TEST_" + suffix, SubjectPrefix: prefix})
	require.NoError(t, err)
	defer pub.Close()

	event := domain.IndexEvent{ID: uuid.NewString(), Type: domain.EventReindexed, DocumentID: "doc-1", ChunkCount: 2}
	require.NoError(t, pub.Publish(ctx, event))

	select {
	case m := <-msgs:
		assert.Equal(t, prefix+".reindexed", m.Subject)
		var got domain.IndexEvent
		require.NoError(t, json.Unmarshal(m.Data, &got))
		assert.Equal(t, "doc-1", got.DocumentID)
		assert.Equal(t, 2, got.ChunkCount)
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}
}
