package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/webcrawl/internal/archive"
	"github.com/nao1215/webcrawl/internal/config"
)

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List archived crawl runs or re-export one",
		Long: `Runs lists crawl runs stored in the archive database, newest first.

Given a run ID, the stored result is loaded and exported again in the
chosen format without re-crawling the site.

Examples:
  # List all archived runs
  webcrawl runs

  # Re-export an archived run as JSON
  webcrawl runs 2f1c... --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunsCmd,
	}

	cmd.Flags().StringP("format", "f", config.FormatJSON,
		"Export format for a single run: json, narrative, summary, or csv")
	cmd.Flags().String("db-dir", "",
		"Archive database directory (default: XDG data directory)")

	return cmd
}

// runRunsCmd executes the runs command.
func runRunsCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := archive.Open(dbDir, archive.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-only usage

	if len(args) == 0 {
		return listRuns(cmd, db)
	}
	return exportRun(cmd, db, args[0])
}

// listRuns prints one line per archived run, newest first.
func listRuns(cmd *cobra.Command, db *archive.CrawlDB) error {
	summaries, err := db.Runs(cmd.Context())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No archived runs.")
		return nil
	}

	for _, s := range summaries {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-16s  %4d pages  %s\n",
			s.RunID,
			s.StartedAt.Format("2006-01-02 15:04"),
			s.State,
			s.PagesCrawled,
			s.SeedURL,
		)
	}
	return nil
}

// exportRun re-exports one archived run to stdout.
func exportRun(cmd *cobra.Command, db *archive.CrawlDB, runID string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	result, err := db.Run(cmd.Context(), runID)
	if err != nil {
		return err
	}

	writer, err := newWriter(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if _, err := writer.Write(result); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}
