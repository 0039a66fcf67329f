package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"NOTION_API_KEY", "GITHUB_TOKEN", "GITHUB_WEBHOOK_SECRET",
		"OPENAI_API_KEY", "GEMINI_API_KEY",
		"SERCHA_DATA_DIR", "SERCHA_VERBOSE", "SERCHA_LOG_FILE",
		"SERCHA_GITHUB_REPOS", "SERCHA_GITHUB_EXTENSIONS",
		"SERCHA_CHUNK_SIZE", "SERCHA_CHUNK_OVERLAP",
		"SERCHA_EMBEDDING_PROVIDER", "SERCHA_EMBEDDING_MODEL",
		"SERCHA_EMBEDDING_API_KEY", "SERCHA_EMBEDDING_BASE_URL",
		"SERCHA_EMBEDDING_BATCH_SIZE",
		"SERCHA_VECTOR_BACKEND", "SERCHA_VECTOR_DSN",
		"SERCHA_STATE_BACKEND", "SERCHA_STATE_DSN", "SERCHA_STATE_URL",
		"SERCHA_EVENTS_BACKEND", "SERCHA_EVENTS_URL",
		"SERCHA_CRAWL_WORKERS", "SERCHA_WEBHOOK_ADDR", "SERCHA_WEBHOOK_DEBOUNCE",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestDefaults_AreValid(t *testing.T) {
	s := Defaults()
	require.NoError(t, Validate(&s))

	assert.Equal(t, 1000, s.Chunk.Size)
	assert.Equal(t, 200, s.Chunk.Overlap)
	assert.Equal(t, 32, s.Embedding.BatchSize)
	assert.Equal(t, 4, s.Crawl.Workers)
	assert.Equal(t, 10*time.Second, s.Webhook.Debounce)
	assert.Equal(t, []string{".md"}, s.GitHub.Extensions)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantKey string
	}{
		{"overlap equal to size", func(s *Settings) { s.Chunk.Overlap = s.Chunk.Size }, "chunk.overlap"},
		{"zero chunk size", func(s *Settings) { s.Chunk.Size = 0; s.Chunk.Overlap = 0 }, "chunk.size"},
		{"too many workers", func(s *Settings) { s.Crawl.Workers = 65 }, "crawl.workers"},
		{"zero workers", func(s *Settings) { s.Crawl.Workers = 0 }, "crawl.workers"},
		{"unknown embedding provider", func(s *Settings) { s.Embedding.Provider = "anthropic" }, "embedding.provider"},
		{"unknown vector backend", func(s *Settings) { s.Vector.Backend = "faiss" }, "vector.backend"},
		{"pgvector without dsn", func(s *Settings) { s.Vector.Backend = VectorPGVector }, "vector.dsn"},
		{"redis without url", func(s *Settings) { s.State.Backend = StateRedis }, "state.url"},
		{"nats without url", func(s *Settings) { s.Events.Backend = EventsNATS }, "events.url"},
		{"extension without dot", func(s *Settings) { s.GitHub.Extensions = []string{"md"} }, "github.extensions[0]"},
		{"max delay below base", func(s *Settings) { s.Retry.MaxDelay = time.Millisecond }, "retry.maxdelay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(&s)

			err := Validate(&s)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	toml := `
[chunk]
size = 500
overlap = 50

[github]
repos = ["acme/docs", "acme/wiki@main"]
requests_per_second = 2.5

[webhook]
debounce = "2s"

[state]
backend = "jsonfile"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0600))
	store, err := file.NewConfigStore(dir)
	require.NoError(t, err)

	s, err := Load(store, "")
	require.NoError(t, err)

	assert.Equal(t, 500, s.Chunk.Size)
	assert.Equal(t, 50, s.Chunk.Overlap)
	assert.Equal(t, []string{"acme/docs", "acme/wiki@main"}, s.GitHub.Repos)
	assert.InDelta(t, 2.5, s.GitHub.RequestsPerSecond, 1e-9)
	assert.Equal(t, 2*time.Second, s.Webhook.Debounce)
	assert.Equal(t, StateJSONFile, s.State.Backend)
	assert.Equal(t, VectorChromem, s.Vector.Backend)
}

func TestLoad_BackendKeys(t *testing.T) {
	clearEnv(t)
	store := memory.NewConfigStore(map[string]any{
		"vector.backend":   "pgvector",
		"vector.dsn":       "postgres://localhost/sercha",
		"vector.compress":  true,
		"state.backend":    "redis",
		"state.url":        "redis://localhost:6379/0",
		"events.backend":   "nats",
		"events.url":       "nats://localhost:4222",
		"retry.base_delay": "1s",
		"retry.max_delay":  "10s",
	})

	s, err := Load(store, "")
	require.NoError(t, err)

	assert.Equal(t, VectorPGVector, s.Vector.Backend)
	assert.Equal(t, "postgres://localhost/sercha", s.Vector.DSN)
	assert.True(t, s.Vector.Compress)
	assert.Equal(t, StateRedis, s.State.Backend)
	assert.Equal(t, "redis://localhost:6379/0", s.State.URL)
	assert.Equal(t, EventsNATS, s.Events.Backend)
	assert.Equal(t, time.Second, s.Retry.BaseDelay)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[crawl]\nworkers = 2\n"), 0600))
	store, err := file.NewConfigStore(dir)
	require.NoError(t, err)

	t.Setenv("SERCHA_CRAWL_WORKERS", "8")
	t.Setenv("SERCHA_GITHUB_REPOS", "acme/a, acme/b ,")
	t.Setenv("NOTION_API_KEY", "secret_abc")

	s, err := Load(store, "")
	require.NoError(t, err)

	assert.Equal(t, 8, s.Crawl.Workers)
	assert.Equal(t, []string{"acme/a", "acme/b"}, s.GitHub.Repos)
	assert.Equal(t, "secret_abc", s.Notion.APIKey)
}

func TestLoad_ProviderKeyFollowsEmbeddingProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERCHA_EMBEDDING_PROVIDER", "gemini")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	s, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, EmbeddingGemini, s.Embedding.Provider)
	assert.Equal(t, "gemini-key", s.Embedding.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GITHUB_TOKEN=ghp_test\nSERCHA_CHUNK_SIZE=800\n"), 0600))

	s, err := Load(nil, envFile)
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", s.GitHub.Token)
	assert.Equal(t, 800, s.Chunk.Size)
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	clearEnv(t)
	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoad_InvalidFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERCHA_CHUNK_OVERLAP", "5000")

	_, err := Load(nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettings_Conversions(t *testing.T) {
	s := Defaults()
	s.DataDir = "/var/lib/sercha"
	s.Retry.MaxAttempts = 3

	p := s.RetryPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.BaseDelay)

	opts := s.LoggerOptions()
	assert.Equal(t, s.Log.MaxSizeMB, opts.MaxSizeMB)

	assert.Equal(t, "/var/lib/sercha/state.json", s.Path("state.json"))
	assert.Equal(t, "/tmp/x.db", s.Path("/tmp/x.db"))
	assert.Empty(t, s.Path(""))
}
