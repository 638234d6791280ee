package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/nao1215/webcrawl/internal/archive"
	"github.com/nao1215/webcrawl/internal/config"
	"github.com/nao1215/webcrawl/internal/crawler"
	"github.com/nao1215/webcrawl/internal/export"
	"github.com/nao1215/webcrawl/internal/log"
	"github.com/nao1215/webcrawl/internal/model"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url> [url...]",
		Short: "Crawl a website and export its content",
		Long: `Crawl fetches a website starting from the given seed URL, follows
links up to the configured depth, extracts readable content from every
page, and exports the result.

Each seed URL becomes its own isolated crawl run. Multiple seeds are
crawled concurrently.

Examples:
  # Crawl a site with defaults (100 pages, depth 3, same domain only)
  webcrawl crawl https://example.com

  # Deep crawl with a larger budget, exported as JSON
  webcrawl crawl -p 500 -d 5 -f json -o site.json https://example.com

  # Fast crawl ignoring robots.txt, through a SOCKS5 proxy
  webcrawl crawl --no-robots --delay 200ms --proxy 127.0.0.1:9050 https://example.com

  # Archive the run for later re-export
  webcrawl crawl --db ./archive https://example.com

Configuration file (.webcrawl) example:
  sites:
    docs.example.com:
      delay: 2s
      maxDepth: 2
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl scope flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per seed")
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the seed (0 crawls only the seed)")
	cmd.Flags().Bool("same-domain", true,
		"Restrict crawling to the seed's registrable domain")

	// Politeness flags
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Minimum delay between requests to the same domain")
	cmd.Flags().Float64("rate", 0,
		"Global requests-per-second ceiling across all domains (0 disables)")
	cmd.Flags().Bool("no-robots", false,
		"Ignore robots.txt rules")

	// Fetch flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of concurrent fetch workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Int("retries", config.DefaultMaxRetries,
		"Fetch attempts per URL for transient errors")
	cmd.Flags().Duration("run-timeout", 0,
		"Wall-clock budget per run; partial results are kept (0 disables)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address for all requests (e.g., 127.0.0.1:9050)")

	// Extraction flags
	cmd.Flags().Bool("images", false,
		"Collect image URLs from each page")
	cmd.Flags().Bool("no-dedupe", false,
		"Keep pages whose content duplicates an earlier page")

	// Export flags
	cmd.Flags().StringP("format", "f", config.FormatDocs,
		"Export format: json, narrative, summary, csv, or docs")
	cmd.Flags().StringP("output", "o", "",
		"Output file (or directory for the docs format)")
	cmd.Flags().String("db", "",
		"Directory for the SQLite run archive (empty disables archiving)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Site-override file path (default: .webcrawl in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, draining...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Seeds = args
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = cmd.Flags().GetInt("max-depth"); err != nil {
		return nil, err
	}
	if cfg.SameDomainOnly, err = cmd.Flags().GetBool("same-domain"); err != nil {
		return nil, err
	}
	if cfg.Delay, err = cmd.Flags().GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.GlobalRate, err = cmd.Flags().GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = cmd.Flags().GetInt("retries"); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = cmd.Flags().GetDuration("run-timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyURL, err = cmd.Flags().GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.ExtractImages, err = cmd.Flags().GetBool("images"); err != nil {
		return nil, err
	}
	if cfg.Format, err = cmd.Flags().GetString("format"); err != nil {
		return nil, err
	}
	if cfg.Output, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}

	noRobots, err := cmd.Flags().GetBool("no-robots")
	if err != nil {
		return nil, err
	}
	cfg.RespectRobots = !noRobots

	noDedupe, err := cmd.Flags().GetBool("no-dedupe")
	if err != nil {
		return nil, err
	}
	cfg.Deduplicate = !noDedupe

	if cfg.DBDir, err = cmd.Flags().GetString("db"); err != nil {
		return nil, err
	}

	if err := loadSiteOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSiteOverrides resolves and loads the site-override file.
// An explicitly given path must exist; otherwise a missing file simply
// means no overrides.
func loadSiteOverrides(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	path := config.FindConfigFile(cfg.ConfigFilePath)

	if path == "" {
		if explicit {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		cfg.Sites = &config.File{Sites: make(map[string]config.SiteConfig)}
		return nil
	}

	sites, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cfg.Sites = sites
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its
// parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runCrawl executes the crawl across all seeds.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"maxPages", cfg.MaxPages,
		"maxDepth", cfg.MaxDepth,
		"concurrency", cfg.Concurrency,
	)

	var db *archive.CrawlDB
	if cfg.DBDir != "" {
		var err error
		db, err = archive.Open(cfg.DBDir, archive.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck // best effort on shutdown
		logger.Info("archive opened", "dir", cfg.DBDir)
	}

	if len(cfg.Seeds) == 1 {
		return runSingleSeed(ctx, cfg, db, logger)
	}
	return runBatch(ctx, cfg, db, logger)
}

// runSingleSeed crawls one seed with a live progress bar.
func runSingleSeed(ctx context.Context, cfg *config.Config, db *archive.CrawlDB, logger *slog.Logger) error {
	engine, err := crawler.New(cfg, cfg.Seeds[0], logger)
	if err != nil {
		return err
	}

	bar := newProgressBar(cfg.MaxPages, cfg.Seeds[0])
	done := make(chan struct{})
	go pollProgress(engine, bar, done)

	start := time.Now()
	result, runErr := engine.Run(ctx)
	close(done)
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if runErr != nil {
		logger.Warn("crawl cut short", "seed", cfg.Seeds[0], "error", runErr)
	}
	fmt.Fprintf(os.Stderr, "Crawled %d pages in %s (%s)\n",
		result.Summary.PagesCrawled,
		time.Since(start).Round(time.Millisecond),
		result.Summary.State,
	)

	if err := exportResult(cfg, result); err != nil {
		return err
	}
	return saveResult(ctx, db, result, logger)
}

// runBatch crawls every seed concurrently and exports each result.
func runBatch(ctx context.Context, cfg *config.Config, db *archive.CrawlDB, logger *slog.Logger) error {
	fmt.Fprintf(os.Stderr, "Crawling %d seeds (concurrency: %d)...\n",
		len(cfg.Seeds), cfg.BatchSize)

	results, batchErr := crawler.RunBatch(ctx, cfg, logger)
	for _, br := range results {
		if br.Result == nil {
			fmt.Fprintf(os.Stderr, "Crawl failed for %s: %v\n", br.Seed, br.Err)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: %d pages (%s)\n",
			br.Seed, br.Result.Summary.PagesCrawled, br.Result.Summary.State)

		if err := exportResult(cfg, br.Result); err != nil {
			return err
		}
		if err := saveResult(ctx, db, br.Result, logger); err != nil {
			return err
		}
	}
	return batchErr
}

// exportResult writes a result in the configured format.
func exportResult(cfg *config.Config, result *model.CrawlResult) error {
	if cfg.Format == config.FormatDocs {
		dir := cfg.Output
		if dir == "" {
			dir = config.DefaultOutputDir
		}
		dir = docsDirFor(dir, result, cfg)

		n, err := export.NewDocumentWriter(dir).Write(result)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d bytes of documents to %s\n", n, dir)
		return nil
	}

	out, cleanup, err := openOutput(cfg, result)
	if err != nil {
		return err
	}
	defer cleanup()

	writer, err := newWriter(cfg.Format, out)
	if err != nil {
		return err
	}
	if _, err := writer.Write(result); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

// docsDirFor gives each seed its own subdirectory in batch mode so
// concurrent runs never interleave files.
func docsDirFor(dir string, result *model.CrawlResult, cfg *config.Config) string {
	if len(cfg.Seeds) <= 1 {
		return dir
	}
	return filepath.Join(dir, export.Filename(result.Summary.SeedURL))
}

// openOutput returns the export destination and a cleanup func.
func openOutput(cfg *config.Config, result *model.CrawlResult) (io.Writer, func(), error) {
	if cfg.Output == "" {
		return os.Stdout, func() {}, nil
	}

	path := cfg.Output
	// Batch runs writing to one path would clobber each other; derive
	// a per-seed name instead.
	if len(cfg.Seeds) > 1 {
		ext := filepath.Ext(path)
		path = path[:len(path)-len(ext)] + "_" + export.Filename(result.Summary.SeedURL) + ext
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// newWriter selects the export writer for a format.
func newWriter(format string, out io.Writer) (export.Writer, error) {
	switch format {
	case config.FormatJSON:
		return export.NewJSONWriter(out, export.WithPrettyPrint()), nil
	case config.FormatNarrative:
		return export.NewNarrativeWriter(out), nil
	case config.FormatSummary:
		return export.NewSummaryWriter(out), nil
	case config.FormatCSV:
		return export.NewCSVWriter(out), nil
	default:
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
}

// saveResult archives the result when the database is enabled.
func saveResult(ctx context.Context, db *archive.CrawlDB, result *model.CrawlResult, logger *slog.Logger) error {
	if db == nil {
		return nil
	}
	// Archive even after cancellation so partial runs stay inspectable.
	if err := db.SaveRun(context.WithoutCancel(ctx), result); err != nil {
		return fmt.Errorf("failed to archive run: %w", err)
	}
	logger.Info("run archived", "runID", result.Summary.RunID)
	return nil
}

// newProgressBar builds the terminal progress bar for a single run.
func newProgressBar(maxPages int, seed string) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxPages,
		progressbar.OptionSetDescription("crawling "+seed),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

// pollProgress mirrors engine counters onto the progress bar until the
// run finishes.
func pollProgress(engine *crawler.Engine, bar *progressbar.ProgressBar, done <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = bar.Set(engine.Progress().PagesCrawled)
		}
	}
}
