package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
)

var crawlLimit int

var crawlCmd = &cobra.Command{
	Use:   "crawl [provider...]",
	Short: "Index every document of the configured providers",
	Long: `Discovers every document of the given providers (notion, github)
and runs each through the indexing pipeline. With no provider named,
every configured provider is crawled. Unchanged documents are skipped
without calling the embedding provider.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().IntVar(&crawlLimit, "limit", 0, "maximum documents per provider (0 for no limit)")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	if crawler == nil {
		return fmt.Errorf("crawl: %w", errNotConfigured)
	}
	if crawlLimit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", domain.ErrInvalidInput)
	}
	kinds, err := parseKinds(args)
	if err != nil {
		return err
	}

	cmd.Println("Crawling...")
	summary, err := crawler.Crawl(cmd.Context(), driving.CrawlOptions{
		Limit: crawlLimit,
		OnOutcome: func(o domain.CrawlOutcome) {
			cmd.Printf("  %s %s\n", statusColour(o), o.DocumentID)
		},
	}, kinds...)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	printSummary(cmd, summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d documents failed", summary.Failed)
	}
	return nil
}

func printSummary(cmd *cobra.Command, s *domain.CrawlSummary) {
	cmd.Println()
	cmd.Printf("%s %d discovered, %s indexed, %s skipped, %s failed in %s\n",
		bold("Done:"), s.Discovered,
		green(s.Indexed), yellow(s.Skipped), red(s.Failed),
		s.Duration().Round(time.Millisecond))

	kinds := make([]string, 0, len(s.ProviderErrors))
	for k := range s.ProviderErrors {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		cmd.Printf("  %s %s: %s\n", red("discovery failed"), k, s.ProviderErrors[domain.ProviderKind(k)])
	}
	if s.Cancelled {
		cmd.Println(yellow("Crawl cancelled before every document was processed."))
	}
}
