package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webcrawl",
		Short: "Polite website crawler with readable content extraction",
		Long: `webcrawl fetches a website starting from a seed URL, extracts the
readable content of every page, and exports the result for humans,
tools, or language models.

It respects robots.txt, rate-limits per domain with adaptive backoff,
skips duplicate content, and stays on the seed's domain by default.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
