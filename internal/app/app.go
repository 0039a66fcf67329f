// Package app wires settings, backends, providers and services into a
// running indexer.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/backends"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/webhook"
	"github.com/custodia-labs/sercha-indexer/internal/config"
	"github.com/custodia-labs/sercha-indexer/internal/connectors/github"
	"github.com/custodia-labs/sercha-indexer/internal/connectors/notion"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/services"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
	"github.com/custodia-labs/sercha-indexer/internal/normalisers/canonical"
	"github.com/custodia-labs/sercha-indexer/internal/postprocessors"
)

// App holds the wired services and the backends they share.
type App struct {
	Settings *config.Settings

	Providers *services.ProviderRegistry
	Indexer   *services.Indexer
	Crawler   *services.CrawlOrchestrator
	Webhooks  *services.WebhookController
	State     *services.StateService
	Query     *services.QueryService

	// GitHubPush is nil when the repo-file provider is not configured.
	GitHubPush *github.PushParser

	closers []func() error
}

// Option adjusts how New builds the app.
type Option func(*buildOptions)

type buildOptions struct {
	checkEmbedding bool
}

// WithEmbeddingCheck pings the embedding provider before returning.
func WithEmbeddingCheck() Option {
	return func(o *buildOptions) { o.checkEmbedding = true }
}

// New builds every backend and service from settings. On error, anything
// already opened is closed.
func New(ctx context.Context, s *config.Settings, opts ...Option) (*App, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	a := &App{Settings: s}
	if err := a.build(ctx, bo); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, bo buildOptions) error {
	s := a.Settings

	embedding, err := a.embedding(ctx, bo.checkEmbedding)
	if err != nil {
		return err
	}

	dims := embedding.Dimensions()
	if dims <= 0 {
		dims = backends.Dimensions(s.Embedding)
	}
	vectors, err := backends.CreateVectorIndex(s, dims)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	a.onClose(vectors.Close)

	state, err := backends.CreateStateStore(ctx, s)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	a.onClose(state.Close)

	publisher, err := backends.CreatePublisher(ctx, s.Events)
	if err != nil {
		return fmt.Errorf("open event publisher: %w", err)
	}
	if publisher != nil {
		a.onClose(publisher.Close)
	}

	if err := a.registerProviders(ctx); err != nil {
		return err
	}

	policy := s.RetryPolicy()
	embedder := services.NewBatchEmbedder(embedding,
		services.WithBatchSize(s.Embedding.BatchSize),
		services.WithEmbedRetry(policy),
	)
	indexerOpts := []services.IndexerOption{services.WithFetchRetry(policy)}
	if publisher != nil {
		indexerOpts = append(indexerOpts, services.WithPublisher(publisher))
	}

	a.Indexer = services.NewIndexer(
		a.Providers,
		canonical.New(),
		postprocessors.NewDefaultPipeline(s.Chunk.Size, s.Chunk.Overlap),
		embedder,
		vectors,
		state,
		indexerOpts...,
	)
	a.Crawler = services.NewCrawlOrchestrator(a.Providers, a.Indexer,
		services.WithWorkers(s.Crawl.Workers),
		services.WithDiscoverRetry(policy),
	)
	a.Webhooks = services.NewWebhookController(a.Indexer, s.Webhook.Debounce)
	a.State = services.NewStateService(state, a.Indexer)
	a.Query = services.NewQueryService(embedding, vectors)
	return nil
}

func (a *App) embedding(ctx context.Context, check bool) (driven.EmbeddingService, error) {
	create := backends.CreateEmbeddingService
	if check {
		create = backends.CreateAndValidateEmbeddingService
	}
	svc, err := create(ctx, a.Settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	a.onClose(svc.Close)
	logger.Debug("Embedding provider %s, model %s", a.Settings.Embedding.Provider, svc.ModelName())
	return svc, nil
}

// registerProviders adds every provider with credentials configured.
func (a *App) registerProviders(ctx context.Context) error {
	s := a.Settings
	a.Providers = services.NewProviderRegistry()
	a.onClose(a.Providers.Close)

	if s.Notion.APIKey != "" {
		p, err := notion.NewProvider(notion.Config{
			APIKey:            s.Notion.APIKey,
			RequestsPerSecond: s.Notion.RequestsPerSecond,
		})
		if err != nil {
			return err
		}
		a.Providers.Register(p)
	}

	if s.GitHub.Token != "" || len(s.GitHub.Repos) > 0 {
		repos, err := github.ParseRepoRefs(s.GitHub.Repos)
		if err != nil {
			return err
		}
		cfg := github.Config{
			Token:             s.GitHub.Token,
			Repos:             repos,
			Extensions:        s.GitHub.Extensions,
			WebhookSecret:     s.GitHub.WebhookSecret,
			BaseURL:           s.GitHub.BaseURL,
			RequestsPerSecond: s.GitHub.RequestsPerSecond,
		}
		client, err := github.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		a.Providers.Register(github.NewProvider(cfg, client))
		a.GitHubPush = github.NewPushParser(cfg)
	}

	if len(a.Providers.Kinds()) == 0 {
		logger.Warn("No providers configured: set NOTION_API_KEY or GITHUB_TOKEN")
	}
	return nil
}

// Serve runs the webhook server until ctx is cancelled. An empty addr
// uses the configured address.
func (a *App) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.Settings.Webhook.Addr
	}
	cfg := webhook.Config{RequestTimeout: a.Settings.Webhook.RequestTimeout}
	if a.GitHubPush != nil {
		cfg.GitHub = a.GitHubPush
	}
	return webhook.New(cfg, a.Webhooks).ListenAndServe(ctx, addr)
}

// Services exposes the app through the CLI's driving ports.
func (a *App) Services() *cli.Services {
	return &cli.Services{
		Crawler: a.Crawler,
		Indexer: a.Indexer,
		State:   a.State,
		Query:   a.Query,
		Serve:   a.Serve,
		Close:   a.Close,
	}
}

// Close releases backends in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Bootstrap loads settings for the CLI and builds the app.
func Bootstrap(ctx context.Context, o cli.Options) (*cli.Services, error) {
	store, err := file.NewConfigStore(o.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	s, err := config.Load(store, o.EnvFile)
	if err != nil {
		return nil, err
	}
	if o.Verbose {
		s.Log.Verbose = true
	}
	logger.Configure(s.LoggerOptions())
	logger.Debug("Config loaded from %s, data dir %s", store.Path(), s.DataDir)

	var opts []Option
	if !o.SkipEmbeddingCheck {
		opts = append(opts, WithEmbeddingCheck())
	}
	a, err := New(ctx, s, opts...)
	if err != nil {
		return nil, err
	}
	return a.Services(), nil
}
