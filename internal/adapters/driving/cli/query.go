package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

var (
	queryLimit    int
	queryProvider string
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Find the chunks nearest to a query",
	Long: `Embeds the query text and prints the nearest chunks in the vector
index, for checking what a downstream retriever would see.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "k", 5, "number of chunks to return")
	queryCmd.Flags().StringVarP(&queryProvider, "provider", "p", "", "only return chunks of this provider")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output hits as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return fmt.Errorf("query: %w", errNotConfigured)
	}

	var filter map[string]string
	if queryProvider != "" {
		kind, err := domain.ParseProviderKind(queryProvider)
		if err != nil {
			return err
		}
		filter = map[string]string{driven.MetaProviderKind: string(kind)}
	}

	hits, err := queryService.Query(cmd.Context(), strings.Join(args, " "), queryLimit, filter)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if queryJSON {
		return printJSON(cmd, hits)
	}
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i, h := range hits {
		title := h.Metadata[driven.MetaTitle]
		if title == "" {
			title = h.Metadata[driven.MetaDocumentID]
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, bold(title), h.Score)
		if u := h.Metadata[driven.MetaSourceURL]; u != "" {
			cmd.Printf("      %s\n", faint(u))
		}
		if ex := h.Metadata[driven.MetaTextExcerpt]; ex != "" {
			cmd.Printf("      %s\n", ex)
		}
		cmd.Println()
	}
	return nil
}
