// Package cli implements the sercha-indexer command line.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Options are the global flags passed to the bootstrap function.
type Options struct {
	ConfigDir string
	EnvFile   string
	Verbose   bool

	// SkipEmbeddingCheck is set for commands that never embed text.
	SkipEmbeddingCheck bool
}

// Services are the driving ports the commands call.
type Services struct {
	Crawler driving.Crawler
	Indexer driving.DocumentIndexer
	State   driving.StateInspector
	Query   driving.QueryService

	// Serve runs the webhook server on addr until ctx is cancelled.
	// An empty addr uses the configured address.
	Serve func(ctx context.Context, addr string) error

	// Close releases every backend.
	Close func() error
}

// BootstrapFunc builds the services from the global options.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, error)

var (
	opts      Options
	bootstrap BootstrapFunc

	crawler        driving.Crawler
	documentIndex  driving.DocumentIndexer
	stateInspector driving.StateInspector
	queryService   driving.QueryService
	serveWebhooks  func(ctx context.Context, addr string) error
	closeServices  func() error
)

// Command annotations.
const (
	// skipBootstrap marks commands that run without services.
	skipBootstrap = "skip-bootstrap"

	// noEmbedding marks commands that never call the embedding provider.
	noEmbedding = "no-embedding"
)

var rootCmd = &cobra.Command{
	Use:   "sercha-indexer",
	Short: "Keep a vector index in sync with Notion pages and GitHub files",
	Long: `sercha-indexer maintains a vector index of workspace pages and
repository files. It crawls whole corpora, re-indexes single documents
when a webhook reports a change, and only re-embeds content that changed.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", "", "directory containing config.toml")
	rootCmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the environment")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
}

// SetBootstrap registers the function that builds the services.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs services directly, bypassing bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	crawler = s.Crawler
	documentIndex = s.Indexer
	stateInspector = s.State
	queryService = s.Query
	serveWebhooks = s.Serve
	closeServices = s.Close
}

// Execute runs the root command, cancelling its context on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	if _, ok := cmd.Annotations[skipBootstrap]; ok {
		return nil
	}
	if bootstrap == nil || configured() {
		return nil
	}

	o := opts
	_, o.SkipEmbeddingCheck = cmd.Annotations[noEmbedding]
	s, err := bootstrap(cmd.Context(), o)
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	defer logger.Sync()
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// configured reports whether services were installed.
func configured() bool {
	return crawler != nil || documentIndex != nil || stateInspector != nil ||
		queryService != nil || serveWebhooks != nil
}

var errNotConfigured = errors.New("service not configured")
