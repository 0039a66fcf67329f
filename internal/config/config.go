// Package config assembles the indexer settings from the TOML config store,
// an optional .env file and the process environment.
//
// Precedence, lowest first: built-in defaults, config.toml, environment.
// Keys use dot notation matching the TOML tables, e.g. "chunk.size".
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
	"github.com/custodia-labs/sercha-indexer/internal/retry"
)

// Backend names.
const (
	EmbeddingOpenAI = "openai"
	EmbeddingGemini = "gemini"
	EmbeddingOllama = "ollama"

	VectorMemory   = "memory"
	VectorChromem  = "chromem"
	VectorPGVector = "pgvector"

	StateSQLite   = "sqlite"
	StatePostgres = "postgres"
	StateRedis    = "redis"
	StateJSONFile = "jsonfile"
	StateMemory   = "memory"

	EventsNone = "none"
	EventsLog  = "log"
	EventsNATS = "nats"
)

// Settings is the complete indexer configuration.
type Settings struct {
	DataDir   string `validate:"required"`
	Log       LogSettings
	Notion    NotionSettings
	GitHub    GitHubSettings
	Chunk     ChunkSettings
	Embedding EmbeddingSettings
	Vector    VectorSettings
	State     StateSettings
	Events    EventSettings
	Crawl     CrawlSettings
	Webhook   WebhookSettings
	Retry     RetrySettings
}

// LogSettings configures the logger.
type LogSettings struct {
	Verbose    bool
	File       string
	MaxSizeMB  int `validate:"gte=0"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
	JSON       bool
}

// NotionSettings configures the workspace-page provider.
type NotionSettings struct {
	APIKey            string
	RequestsPerSecond float64 `validate:"gt=0"`
}

// GitHubSettings configures the repo-file provider and push webhooks.
type GitHubSettings struct {
	Token string

	// Repos lists "owner/repo" or "owner/repo@branch". Empty means every
	// repository the token can access.
	Repos []string

	// Extensions selects which files become documents.
	Extensions []string `validate:"min=1,dive,startswith=."`

	// WebhookSecret enables X-Hub-Signature-256 verification when set.
	WebhookSecret string

	// BaseURL targets GitHub Enterprise when set.
	BaseURL string `validate:"omitempty,url"`

	RequestsPerSecond float64 `validate:"gt=0"`
}

// ChunkSettings configures the chunker.
type ChunkSettings struct {
	Size    int `validate:"gt=0"`
	Overlap int `validate:"gte=0,ltfield=Size"`
}

// EmbeddingSettings selects and configures the embedding provider.
type EmbeddingSettings struct {
	Provider   string `validate:"oneof=openai gemini ollama"`
	Model      string
	APIKey     string
	BaseURL    string `validate:"omitempty,url"`
	Dimensions int    `validate:"gte=0"`
	BatchSize  int    `validate:"gt=0"`
}

// VectorSettings selects and configures the vector index.
type VectorSettings struct {
	Backend    string `validate:"oneof=memory chromem pgvector"`
	Path       string
	DSN        string `validate:"required_if=Backend pgvector"`
	Collection string
	Compress   bool
}

// StateSettings selects and configures the index state store.
type StateSettings struct {
	Backend string `validate:"oneof=sqlite postgres redis jsonfile memory"`
	Path    string
	DSN     string `validate:"required_if=Backend postgres"`
	URL     string `validate:"required_if=Backend redis"`
	Prefix  string
}

// EventSettings selects the index event publisher.
type EventSettings struct {
	Backend string `validate:"oneof=none log nats"`
	URL     string `validate:"required_if=Backend nats"`
	Stream  string
	Subject string
}

// CrawlSettings configures the bulk crawler.
type CrawlSettings struct {
	Workers int `validate:"min=1,max=64"`
}

// WebhookSettings configures the webhook HTTP server.
type WebhookSettings struct {
	Addr           string        `validate:"required"`
	Debounce       time.Duration `validate:"gte=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
}

// RetrySettings configures the shared retry policy.
type RetrySettings struct {
	MaxAttempts int           `validate:"min=1,max=20"`
	BaseDelay   time.Duration `validate:"gt=0"`
	MaxDelay    time.Duration `validate:"gtefield=BaseDelay"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	dataDir := ".sercha-indexer"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".sercha-indexer")
	}
	return Settings{
		DataDir: dataDir,
		Log:     LogSettings{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
		Notion:  NotionSettings{RequestsPerSecond: 3},
		GitHub: GitHubSettings{
			Extensions:        []string{".md"},
			RequestsPerSecond: 10,
		},
		Chunk:     ChunkSettings{Size: 1000, Overlap: 200},
		Embedding: EmbeddingSettings{Provider: EmbeddingOpenAI, BatchSize: 32},
		Vector:    VectorSettings{Backend: VectorChromem},
		State:     StateSettings{Backend: StateSQLite},
		Events:    EventSettings{Backend: EventsLog},
		Crawl:     CrawlSettings{Workers: 4},
		Webhook: WebhookSettings{
			Addr:           ":8080",
			Debounce:       10 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Retry: RetrySettings{
			MaxAttempts: 5,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    30 * time.Second,
		},
	}
}

// Load builds Settings from defaults, the config store and the environment,
// then validates the result. envFile is optional; a missing file is ignored.
func Load(store driven.ConfigStore, envFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	s := Defaults()
	if store != nil {
		applyStore(&s, store)
	}
	applyEnv(&s, os.Getenv)

	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation at once.
func Validate(s *Settings) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", keyFor(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("%w: config: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

// keyFor turns "Settings.Chunk.Overlap" into "chunk.overlap".
func keyFor(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Settings.")
	return strings.ToLower(namespace)
}

func applyStore(s *Settings, c driven.ConfigStore) {
	setString(&s.DataDir, c, "data_dir")

	setBool(&s.Log.Verbose, c, "log.verbose")
	setString(&s.Log.File, c, "log.file")
	setInt(&s.Log.MaxSizeMB, c, "log.max_size_mb")
	setInt(&s.Log.MaxBackups, c, "log.max_backups")
	setInt(&s.Log.MaxAgeDays, c, "log.max_age_days")
	setBool(&s.Log.JSON, c, "log.json")

	setString(&s.Notion.APIKey, c, "notion.api_key")
	setFloat(&s.Notion.RequestsPerSecond, c, "notion.requests_per_second")

	setString(&s.GitHub.Token, c, "github.token")
	setStrings(&s.GitHub.Repos, c, "github.repos")
	setStrings(&s.GitHub.Extensions, c, "github.extensions")
	setString(&s.GitHub.WebhookSecret, c, "github.webhook_secret")
	setString(&s.GitHub.BaseURL, c, "github.base_url")
	setFloat(&s.GitHub.RequestsPerSecond, c, "github.requests_per_second")

	setInt(&s.Chunk.Size, c, "chunk.size")
	setInt(&s.Chunk.Overlap, c, "chunk.overlap")

	setString(&s.Embedding.Provider, c, "embedding.provider")
	setString(&s.Embedding.Model, c, "embedding.model")
	setString(&s.Embedding.APIKey, c, "embedding.api_key")
	setString(&s.Embedding.BaseURL, c, "embedding.base_url")
	setInt(&s.Embedding.Dimensions, c, "embedding.dimensions")
	setInt(&s.Embedding.BatchSize, c, "embedding.batch_size")

	setString(&s.Vector.Backend, c, "vector.backend")
	setString(&s.Vector.Path, c, "vector.path")
	setString(&s.Vector.DSN, c, "vector.dsn")
	setString(&s.Vector.Collection, c, "vector.collection")
	setBool(&s.Vector.Compress, c, "vector.compress")

	setString(&s.State.Backend, c, "state.backend")
	setString(&s.State.Path, c, "state.path")
	setString(&s.State.DSN, c, "state.dsn")
	setString(&s.State.URL, c, "state.url")
	setString(&s.State.Prefix, c, "state.prefix")

	setString(&s.Events.Backend, c, "events.backend")
	setString(&s.Events.URL, c, "events.url")
	setString(&s.Events.Stream, c, "events.stream")
	setString(&s.Events.Subject, c, "events.subject")

	setInt(&s.Crawl.Workers, c, "crawl.workers")

	setString(&s.Webhook.Addr, c, "webhook.addr")
	setDuration(&s.Webhook.Debounce, c, "webhook.debounce")
	setDuration(&s.Webhook.RequestTimeout, c, "webhook.request_timeout")

	setInt(&s.Retry.MaxAttempts, c, "retry.max_attempts")
	setDuration(&s.Retry.BaseDelay, c, "retry.base_delay")
	setDuration(&s.Retry.MaxDelay, c, "retry.max_delay")
}

// applyEnv overlays environment variables. Provider credentials use their
// conventional names; everything else uses SERCHA_<KEY>.
func applyEnv(s *Settings, getenv func(string) string) {
	envString(&s.Notion.APIKey, getenv, "NOTION_API_KEY")
	envString(&s.GitHub.Token, getenv, "GITHUB_TOKEN")
	envString(&s.GitHub.WebhookSecret, getenv, "GITHUB_WEBHOOK_SECRET")
	envString(&s.Embedding.Provider, getenv, "SERCHA_EMBEDDING_PROVIDER")

	switch s.Embedding.Provider {
	case EmbeddingOpenAI:
		envString(&s.Embedding.APIKey, getenv, "OPENAI_API_KEY")
	case EmbeddingGemini:
		envString(&s.Embedding.APIKey, getenv, "GEMINI_API_KEY")
	}

	envString(&s.DataDir, getenv, "SERCHA_DATA_DIR")
	envBool(&s.Log.Verbose, getenv, "SERCHA_VERBOSE")
	envString(&s.Log.File, getenv, "SERCHA_LOG_FILE")
	envList(&s.GitHub.Repos, getenv, "SERCHA_GITHUB_REPOS")
	envList(&s.GitHub.Extensions, getenv, "SERCHA_GITHUB_EXTENSIONS")
	envInt(&s.Chunk.Size, getenv, "SERCHA_CHUNK_SIZE")
	envInt(&s.Chunk.Overlap, getenv, "SERCHA_CHUNK_OVERLAP")
	envString(&s.Embedding.Model, getenv, "SERCHA_EMBEDDING_MODEL")
	envString(&s.Embedding.APIKey, getenv, "SERCHA_EMBEDDING_API_KEY")
	envString(&s.Embedding.BaseURL, getenv, "SERCHA_EMBEDDING_BASE_URL")
	envInt(&s.Embedding.BatchSize, getenv, "SERCHA_EMBEDDING_BATCH_SIZE")
	envString(&s.Vector.Backend, getenv, "SERCHA_VECTOR_BACKEND")
	envString(&s.Vector.DSN, getenv, "SERCHA_VECTOR_DSN")
	envString(&s.State.Backend, getenv, "SERCHA_STATE_BACKEND")
	envString(&s.State.DSN, getenv, "SERCHA_STATE_DSN")
	envString(&s.State.URL, getenv, "SERCHA_STATE_URL")
	envString(&s.Events.Backend, getenv, "SERCHA_EVENTS_BACKEND")
	envString(&s.Events.URL, getenv, "SERCHA_EVENTS_URL")
	envInt(&s.Crawl.Workers, getenv, "SERCHA_CRAWL_WORKERS")
	envString(&s.Webhook.Addr, getenv, "SERCHA_WEBHOOK_ADDR")
	envDuration(&s.Webhook.Debounce, getenv, "SERCHA_WEBHOOK_DEBOUNCE")
}

func setString(dst *string, c driven.ConfigStore, key string) {
	if v := c.GetString(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, c driven.ConfigStore, key string) {
	if _, ok := c.Get(key); ok {
		*dst = c.GetInt(key)
	}
}

func setBool(dst *bool, c driven.ConfigStore, key string) {
	if _, ok := c.Get(key); ok {
		*dst = c.GetBool(key)
	}
}

func setDuration(dst *time.Duration, c driven.ConfigStore, key string) {
	if v := c.GetDuration(key); v > 0 {
		*dst = v
	}
}

func setStrings(dst *[]string, c driven.ConfigStore, key string) {
	if v := c.GetStringSlice(key); v != nil {
		*dst = v
	}
}

// setFloat accepts TOML floats and integers.
func setFloat(dst *float64, c driven.ConfigStore, key string) {
	v, ok := c.Get(key)
	if !ok {
		return
	}
	switch n := v.(type) {
	case float64:
		*dst = n
	case int64:
		*dst = float64(n)
	case int:
		*dst = float64(n)
	}
}

func envString(dst *string, getenv func(string) string, name string) {
	if v := strings.TrimSpace(getenv(name)); v != "" {
		*dst = v
	}
}

func envInt(dst *int, getenv func(string) string, name string) {
	if n, err := strconv.Atoi(strings.TrimSpace(getenv(name))); err == nil {
		*dst = n
	}
}

func envBool(dst *bool, getenv func(string) string, name string) {
	if b, err := strconv.ParseBool(strings.TrimSpace(getenv(name))); err == nil {
		*dst = b
	}
}

func envDuration(dst *time.Duration, getenv func(string) string, name string) {
	if d, err := time.ParseDuration(strings.TrimSpace(getenv(name))); err == nil {
		*dst = d
	}
}

// envList reads a comma-separated list.
func envList(dst *[]string, getenv func(string) string, name string) {
	raw := strings.TrimSpace(getenv(name))
	if raw == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

// RetryPolicy converts the retry settings into a retry.Policy.
func (s *Settings) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = s.Retry.MaxAttempts
	p.BaseDelay = s.Retry.BaseDelay
	p.MaxDelay = s.Retry.MaxDelay
	return p
}

// LoggerOptions converts the log settings into logger.Options.
func (s *Settings) LoggerOptions() logger.Options {
	return logger.Options{
		Verbose:     s.Log.Verbose,
		File:        s.Log.File,
		MaxSizeMB:   s.Log.MaxSizeMB,
		MaxBackups:  s.Log.MaxBackups,
		MaxAgeDays:  s.Log.MaxAgeDays,
		Compress:    true,
		JSONConsole: s.Log.JSON,
	}
}

// Path resolves p against DataDir when it is relative. Empty stays empty.
func (s *Settings) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.DataDir, p)
}
