package backends

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/config"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.Defaults()
	s.DataDir = t.TempDir()
	return &s
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		name     string
		settings config.EmbeddingSettings
		want     int
	}{
		{"explicit wins", config.EmbeddingSettings{Provider: "openai", Model: "text-embedding-3-large", Dimensions: 256}, 256},
		{"known model", config.EmbeddingSettings{Provider: "openai", Model: "text-embedding-3-large"}, 3072},
		{"gemini default", config.EmbeddingSettings{Provider: "gemini"}, 768},
		{"ollama default", config.EmbeddingSettings{Provider: "ollama", Model: "custom"}, 768},
		{"openai default", config.EmbeddingSettings{Provider: "openai"}, 1536},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dimensions(tt.settings))
		})
	}
}

func TestCreateEmbeddingService(t *testing.T) {
	ctx := context.Background()

	t.Run("ollama", func(t *testing.T) {
		svc, err := CreateEmbeddingService(ctx, config.EmbeddingSettings{Provider: "ollama"})
		require.NoError(t, err)
		defer svc.Close()
		assert.Equal(t, "nomic-embed-text", svc.ModelName())
	})

	t.Run("openai requires key", func(t *testing.T) {
		_, err := CreateEmbeddingService(ctx, config.EmbeddingSettings{Provider: "openai"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("openai", func(t *testing.T) {
		svc, err := CreateEmbeddingService(ctx, config.EmbeddingSettings{Provider: "openai", APIKey: "k"})
		require.NoError(t, err)
		defer svc.Close()
		assert.Equal(t, 1536, svc.Dimensions())
	})

	t.Run("gemini", func(t *testing.T) {
		svc, err := CreateEmbeddingService(ctx, config.EmbeddingSettings{Provider: "gemini", APIKey: "k"})
		require.NoError(t, err)
		defer svc.Close()
		assert.Equal(t, "text-embedding-004", svc.ModelName())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := CreateEmbeddingService(ctx, config.EmbeddingSettings{Provider: "anthropic"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		svc, err := CreateAndValidateEmbeddingService(context.Background(),
			config.EmbeddingSettings{Provider: "ollama", BaseURL: srv.URL})
		require.NoError(t, err)
		svc.Close()
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := CreateAndValidateEmbeddingService(context.Background(),
			config.EmbeddingSettings{Provider: "ollama", BaseURL: srv.URL})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestCreateVectorIndex(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s := testSettings(t)
		s.Vector.Backend = config.VectorMemory
		idx, err := CreateVectorIndex(s, 8)
		require.NoError(t, err)
		require.NoError(t, idx.Close())
	})

	t.Run("chromem under data dir", func(t *testing.T) {
		s := testSettings(t)
		idx, err := CreateVectorIndex(s, 8)
		require.NoError(t, err)
		require.NoError(t, idx.Close())
		assert.DirExists(t, filepath.Join(s.DataDir, chromemDir))
	})

	t.Run("unknown", func(t *testing.T) {
		s := testSettings(t)
		s.Vector.Backend = "faiss"
		_, err := CreateVectorIndex(s, 8)
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})
}

func TestCreateStateStore(t *testing.T) {
	ctx := context.Background()

	for _, backend := range []string{config.StateMemory, config.StateSQLite, config.StateJSONFile} {
		t.Run(backend, func(t *testing.T) {
			s := testSettings(t)
			s.State.Backend = backend

			store, err := CreateStateStore(ctx, s)
			require.NoError(t, err)
			defer store.Close()

			rec := &domain.IndexStateRecord{DocumentID: "doc-1", ContentHash: "h", ChunkIDs: []string{"c1"}}
			require.NoError(t, store.Save(ctx, rec))
			got, err := store.Get(ctx, "doc-1")
			require.NoError(t, err)
			assert.Equal(t, []string{"c1"}, got.ChunkIDs)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		s := testSettings(t)
		s.State.Backend = "etcd"
		_, err := CreateStateStore(ctx, s)
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})
}

func TestCreatePublisher(t *testing.T) {
	ctx := context.Background()

	pub, err := CreatePublisher(ctx, config.EventSettings{Backend: config.EventsNone})
	require.NoError(t, err)
	assert.Nil(t, pub)

	pub, err = CreatePublisher(ctx, config.EventSettings{Backend: config.EventsLog})
	require.NoError(t, err)
	require.NotNil(t, pub)
	assert.NoError(t, pub.Publish(ctx, domain.IndexEvent{Type: domain.EventReindexed, DocumentID: "d"}))

	_, err = CreatePublisher(ctx, config.EventSettings{Backend: "kafka"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
