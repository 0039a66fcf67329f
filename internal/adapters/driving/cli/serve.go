package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Serves /webhooks/notion and /webhooks/github. Each delivery is
debounced and the affected documents are re-indexed.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveWebhooks == nil {
		return fmt.Errorf("serve: %w", errNotConfigured)
	}
	return serveWebhooks(cmd.Context(), serveAddr)
}
