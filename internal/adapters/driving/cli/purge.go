package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

var purgeYes bool

var purgeCmd = &cobra.Command{
	Use:   "purge <provider>",
	Short: "Remove every indexed document of a provider",
	Long: `Deletes every chunk of the provider's documents from the vector
index and marks their state stale. A later crawl re-indexes them.`,
	Annotations: map[string]string{noEmbedding: ""},
	Args:        cobra.ExactArgs(1),
	RunE:        runPurge,
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "confirm the purge")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	if stateInspector == nil {
		return fmt.Errorf("purge: %w", errNotConfigured)
	}
	kind, err := domain.ParseProviderKind(args[0])
	if err != nil {
		return err
	}
	if !purgeYes {
		return fmt.Errorf("%w: purging %s requires --yes", domain.ErrInvalidInput, kind)
	}

	n, err := stateInspector.Purge(cmd.Context(), kind)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	cmd.Printf("Purged %d %s documents.\n", n, kind)
	return nil
}
