package main

import (
	"os"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-indexer/internal/app"
)

func main() {
	cli.SetBootstrap(app.Bootstrap)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
