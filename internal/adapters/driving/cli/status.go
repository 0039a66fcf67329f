package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

var (
	statusProvider string
	statusJSON     bool
)

var statusCmd = &cobra.Command{
	Use:   "status [document-id]",
	Short: "Show the index state",
	Long: `Lists the documents the index holds, with their chunk counts.
With a document ID, shows that document's record.`,
	Annotations: map[string]string{noEmbedding: ""},
	Args:        cobra.MaximumNArgs(1),
	RunE:        runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusProvider, "provider", "p", "", "only list documents of this provider")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if stateInspector == nil {
		return fmt.Errorf("status: %w", errNotConfigured)
	}
	ctx := cmd.Context()

	if len(args) == 1 {
		rec, err := stateInspector.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if statusJSON {
			return printJSON(cmd, rec)
		}
		printRecord(cmd, rec)
		return nil
	}

	var kind domain.ProviderKind
	if statusProvider != "" {
		k, err := domain.ParseProviderKind(statusProvider)
		if err != nil {
			return err
		}
		kind = k
	}

	records, err := stateInspector.List(ctx, kind)
	if err != nil {
		return err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].DocumentID < records[j].DocumentID })
	if statusJSON {
		return printJSON(cmd, records)
	}

	if len(records) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}
	chunks, stale := 0, 0
	for i := range records {
		r := &records[i]
		chunks += len(r.ChunkIDs)
		marker := green("●")
		if r.Stale {
			stale++
			marker = faint("○")
		}
		cmd.Printf("%s %-60s %3d chunks  %s\n", marker, r.DocumentID, len(r.ChunkIDs), faint(r.Title))
	}
	cmd.Println()
	cmd.Printf("%s %d documents, %d chunks, %d stale\n", bold("Total:"), len(records), chunks, stale)
	return nil
}

func printRecord(cmd *cobra.Command, r *domain.IndexStateRecord) {
	cmd.Printf("%s  %s\n", bold("Document:"), r.DocumentID)
	cmd.Printf("%s  %s\n", bold("Provider:"), r.ProviderKind)
	cmd.Printf("%s     %s\n", bold("Title:"), r.Title)
	if r.SourceURL != "" {
		cmd.Printf("%s       %s\n", bold("URL:"), r.SourceURL)
	}
	cmd.Printf("%s      %s\n", bold("Hash:"), r.ContentHash)
	cmd.Printf("%s    %d\n", bold("Chunks:"), len(r.ChunkIDs))
	cmd.Printf("%s     %t\n", bold("Stale:"), r.Stale)
	cmd.Printf("%s   %s\n", bold("Updated:"), r.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
