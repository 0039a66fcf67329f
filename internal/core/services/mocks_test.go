package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/memory"
	vectormem "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/normalisers/canonical"
	"github.com/custodia-labs/sercha-indexer/internal/postprocessors"
	"github.com/custodia-labs/sercha-indexer/internal/retry"
)

// --- Content provider ---

type mockProvider struct {
	kind domain.ProviderKind

	mu          sync.Mutex
	docs        map[string]*domain.RawDocument
	fetchErrs   map[string][]error
	fetchCalls  map[string]int
	discoverIDs []string
	discoverErr []error
	discoverN   int
	block       chan struct{}
}

func newMockProvider(kind domain.ProviderKind) *mockProvider {
	return &mockProvider{
		kind:       kind,
		docs:       make(map[string]*domain.RawDocument),
		fetchErrs:  make(map[string][]error),
		fetchCalls: make(map[string]int),
	}
}

func (m *mockProvider) put(id, title, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = &domain.RawDocument{
		ID:           id,
		ProviderKind: m.kind,
		Title:        title,
		SourceURL:    "https://example.test/" + id,
		Text:         text,
	}
	m.discoverIDs = appendUnique(m.discoverIDs, id)
}

func (m *mockProvider) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
}

// failFetch queues errors returned by successive fetches of id.
func (m *mockProvider) failFetch(id string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErrs[id] = append(m.fetchErrs[id], errs...)
}

func (m *mockProvider) calls(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls[id]
}

func (m *mockProvider) Kind() domain.ProviderKind { return m.kind }

func (m *mockProvider) Discover(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discoverN++
	if len(m.discoverErr) > 0 {
		err := m.discoverErr[0]
		m.discoverErr = m.discoverErr[1:]
		return nil, err
	}
	out := make([]string, len(m.discoverIDs))
	copy(out, m.discoverIDs)
	return out, nil
}

func (m *mockProvider) Fetch(ctx context.Context, id string) (*domain.RawDocument, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls[id]++
	if queued := m.fetchErrs[id]; len(queued) > 0 {
		m.fetchErrs[id] = queued[1:]
		return nil, queued[0]
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, &domain.UpstreamError{Provider: "mock", Op: "fetch", StatusCode: 404, Message: "not found"}
	}
	cp := *doc
	return &cp, nil
}

func (m *mockProvider) Close() error { return nil }

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// --- Embedding service ---

type mockEmbedding struct {
	mu        sync.Mutex
	batches   [][]string
	short     bool
	errs      []error
	embedErr  error
	dimension int
}

func newMockEmbedding() *mockEmbedding {
	return &mockEmbedding{dimension: 3}
}

func (m *mockEmbedding) vector(text string) []float32 {
	sum := 0
	for _, r := range text {
		sum += int(r)
	}
	return []float32{1, float32(len(text)%97 + 1), float32(sum%89 + 1)}
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	n := len(texts)
	if m.short && n > 0 {
		n--
	}
	out := make([][]float32, n)
	for i := 0; i < n; i++ {
		out[i] = m.vector(texts[i])
	}
	return out, nil
}

func (m *mockEmbedding) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *mockEmbedding) Dimensions() int              { return m.dimension }
func (m *mockEmbedding) ModelName() string            { return "mock-embed" }
func (m *mockEmbedding) Ping(_ context.Context) error { return nil }
func (m *mockEmbedding) Close() error                 { return nil }

// --- Vector index ---

// spyIndex records the order of writes and can inject failures.
type spyIndex struct {
	*vectormem.Index

	mu        sync.Mutex
	ops       []string
	upsertErr error
	deleteErr error
}

func newSpyIndex() *spyIndex {
	return &spyIndex{Index: vectormem.New()}
}

func (s *spyIndex) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	s.mu.Lock()
	s.ops = append(s.ops, "upsert")
	err := s.upsertErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Index.Upsert(ctx, records)
}

func (s *spyIndex) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	s.ops = append(s.ops, "delete")
	err := s.deleteErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Index.Delete(ctx, ids)
}

func (s *spyIndex) writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

func (s *spyIndex) resetWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
}

// --- Event publisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.IndexEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e domain.IndexEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) published() []domain.IndexEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.IndexEvent(nil), m.events...)
}

// --- State store wrapper ---

type failingStateStore struct {
	*memory.IndexStateStore
	saveErr error
	getErr  error
}

func (f *failingStateStore) Get(ctx context.Context, id string) (*domain.IndexStateRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.IndexStateStore.Get(ctx, id)
}

func (f *failingStateStore) Save(ctx context.Context, r *domain.IndexStateRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.IndexStateStore.Save(ctx, r)
}

// --- Fixture ---

type fixture struct {
	provider  *mockProvider
	embedding *mockEmbedding
	index     *spyIndex
	state     *memory.IndexStateStore
	publisher *mockPublisher
	indexer   *Indexer
}

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func newFixture() *fixture {
	f := &fixture{
		provider:  newMockProvider(domain.ProviderWorkspacePage),
		embedding: newMockEmbedding(),
		index:     newSpyIndex(),
		state:     memory.NewIndexStateStore(),
		publisher: &mockPublisher{},
	}
	f.indexer = f.build(f.state)
	return f
}

func (f *fixture) build(state driven.IndexStateStore) *Indexer {
	return NewIndexer(
		NewProviderRegistry(f.provider),
		canonical.New(),
		postprocessors.NewDefaultPipeline(100, 20),
		NewBatchEmbedder(f.embedding, WithBatchSize(4), WithEmbedRetry(fastRetry())),
		f.index,
		state,
		WithPublisher(f.publisher),
		WithFetchRetry(fastRetry()),
	)
}

var errBoom = errors.New("boom")
