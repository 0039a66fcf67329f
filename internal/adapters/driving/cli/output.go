package cli

import (
	"github.com/fatih/color"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// statusColour colours a crawl outcome by its status.
func statusColour(o domain.CrawlOutcome) string {
	switch o.Status {
	case domain.CrawlIndexed:
		return green(o.String())
	case domain.CrawlSkipped:
		return yellow(o.String())
	default:
		return red(o.String())
	}
}

// parseKinds resolves provider names and aliases.
func parseKinds(args []string) ([]domain.ProviderKind, error) {
	kinds := make([]domain.ProviderKind, 0, len(args))
	for _, a := range args {
		k, err := domain.ParseProviderKind(a)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
