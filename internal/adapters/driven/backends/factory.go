// Package backends builds the driven adapters selected in the settings:
// embedding provider, vector index, index state store and event publisher.
package backends

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/events/logpub"
	natspub "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/events/nats"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/vector/chromem"
	vectormem "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/vector/pgvector"
	"github.com/custodia-labs/sercha-indexer/internal/config"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Default file names under the data directory.
const (
	chromemDir    = "vectors"
	stateJSONFile = "index_state.json"
)

// embeddingDimensions lists known model sizes; unknown models fall back to
// the adapter default or the configured value.
var embeddingDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"text-embedding-004":     768,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
}

// Dimensions resolves the embedding size for the settings.
func Dimensions(s config.EmbeddingSettings) int {
	if s.Dimensions > 0 {
		return s.Dimensions
	}
	if d := embeddingDimensions[s.Model]; d > 0 {
		return d
	}
	switch s.Provider {
	case config.EmbeddingGemini:
		return gemini.DefaultDimensions
	case config.EmbeddingOllama:
		return ollamaembed.DefaultDimensions
	default:
		return embeddingDimensions[openaiembed.DefaultModel]
	}
}

// CreateEmbeddingService creates the embedding service named by the settings.
func CreateEmbeddingService(ctx context.Context, s config.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch s.Provider {
	case config.EmbeddingOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: Dimensions(s),
		}), nil

	case config.EmbeddingOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		})

	case config.EmbeddingGemini:
		return gemini.NewEmbeddingService(ctx, gemini.Config{
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimensions: Dimensions(s),
			Endpoint:   s.BaseURL,
		})

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, s.Provider)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and pings it.
func CreateAndValidateEmbeddingService(ctx context.Context, s config.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateVectorIndex opens the vector index named by the settings.
// dimensions sizes the pgvector column.
func CreateVectorIndex(s *config.Settings, dimensions int) (driven.VectorIndex, error) {
	v := s.Vector
	switch v.Backend {
	case config.VectorMemory:
		return vectormem.New(), nil

	case config.VectorChromem:
		path := s.Path(v.Path)
		if path == "" {
			path = filepath.Join(s.DataDir, chromemDir)
		}
		return chromem.New(chromem.Config{
			Path:        path,
			Compress:    v.Compress,
			Collection:  v.Collection,
			Concurrency: s.Crawl.Workers,
		})

	case config.VectorPGVector:
		return pgvector.New(pgvector.Config{
			DSN:        v.DSN,
			Table:      v.Collection,
			Dimensions: dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: vector backend %q", domain.ErrUnsupportedType, v.Backend)
	}
}

// CreateStateStore opens the index state store named by the settings.
func CreateStateStore(ctx context.Context, s *config.Settings) (driven.IndexStateStore, error) {
	st := s.State
	switch st.Backend {
	case config.StateMemory:
		return memory.NewIndexStateStore(), nil

	case config.StateSQLite:
		dir := s.Path(st.Path)
		if dir == "" {
			dir = s.DataDir
		}
		return sqlite.NewStore(dir)

	case config.StateJSONFile:
		path := s.Path(st.Path)
		if path == "" {
			path = filepath.Join(s.DataDir, stateJSONFile)
		}
		return jsonfile.NewIndexStateStore(path)

	case config.StatePostgres:
		return postgres.NewIndexStateStore(st.DSN)

	case config.StateRedis:
		return redis.NewIndexStateStore(ctx, st.URL, st.Prefix)

	default:
		return nil, fmt.Errorf("%w: state backend %q", domain.ErrUnsupportedType, st.Backend)
	}
}

// CreatePublisher returns the event publisher named by the settings, or nil
// when events are disabled.
func CreatePublisher(ctx context.Context, s config.EventSettings) (driven.EventPublisher, error) {
	switch s.Backend {
	case config.EventsNone, "":
		return nil, nil
	case config.EventsLog:
		return logpub.New(), nil
	case config.EventsNATS:
		return natspub.NewPublisher(ctx, natspub.Config{
			URL:           s.URL,
			Stream:        s.Stream,
			SubjectPrefix: s.Subject,
		})
	default:
		return nil, fmt.Errorf("%w: events backend %q", domain.ErrUnsupportedType, s.Backend)
	}
}
