package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index <provider> <document-id>",
	Short: "Re-index a single document",
	Long: `Runs one document through the indexing pipeline, as a webhook would.
Notion documents are page IDs; GitHub documents are owner/repo@branch:path.`,
	Args: cobra.ExactArgs(2),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if documentIndex == nil {
		return fmt.Errorf("index: %w", errNotConfigured)
	}
	kind, err := domain.ParseProviderKind(args[0])
	if err != nil {
		return err
	}

	out, err := documentIndex.IndexDocument(cmd.Context(), kind, args[1])
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("%s %s\n", bold(out.Action), out.DocumentID)
	switch out.Action {
	case domain.ActionReindexed:
		cmd.Printf("  %d chunks, %d obsolete removed, hash %s\n", len(out.ChunkIDs), out.Retracted, out.ContentHash)
	case domain.ActionRetracted:
		cmd.Printf("  %d chunks removed (%s)\n", out.Retracted, out.Reason)
	}
	return nil
}
