package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// optional .env for local development, missing file is fine
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "ratepull",
		Short:         "Swedish mortgage lender pricing scraper",
		Long:          "ratepull polls the public pricing APIs of Swedish mortgage lenders across a generated grid of market segments and exports the offered rates.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(newScrapeCmd(&configPath))
	root.AddCommand(newSegmentsCmd(&configPath))
	root.AddCommand(newHarmoniseCmd(&configPath))
	return root
}
