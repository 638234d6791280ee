package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the behavior of polite,
// conservative crawlers: one request per second per domain, bounded
// page budgets, and generous but finite timeouts.
const (
	// DefaultMaxPages is the maximum number of pages to crawl per run.
	// This prevents runaway crawling on large or infinitely-generating
	// sites. Users can override this via the --max-pages CLI flag.
	DefaultMaxPages = 100

	// DefaultMaxDepth limits how far link discovery walks from the
	// seed. Depth 0 means only the seed page itself.
	DefaultMaxDepth = 3

	// DefaultDelay is the per-domain delay floor between requests.
	// 1 second is conservative and respectful of server resources.
	DefaultDelay = 1 * time.Second

	// DefaultMaxBackoff caps the exponential backoff delay a domain
	// can accumulate after repeated failures.
	DefaultMaxBackoff = 60 * time.Second

	// DefaultMaxDomainErrors is the number of consecutive failures
	// after which a domain is skipped for the rest of the run.
	DefaultMaxDomainErrors = 5

	// DefaultConcurrency is the worker pool size. Ten workers keep
	// throughput reasonable without hammering any single site, since
	// the per-domain limiter still serializes same-domain requests.
	DefaultConcurrency = 10

	// DefaultTimeout is the per-request fetch timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRobotsTimeout bounds robots.txt fetches. It is shorter
	// than the page timeout because a slow robots.txt should not
	// stall the whole domain.
	DefaultRobotsTimeout = 10 * time.Second

	// DefaultRobotsTTL is how long cached robots.txt rules are trusted.
	DefaultRobotsTTL = 30 * time.Minute

	// DefaultMaxRetries is the number of fetch attempts for transient
	// errors before a URL is recorded as failed.
	DefaultMaxRetries = 3

	// DefaultUserAgent identifies the crawler in HTTP requests.
	// A descriptive User-Agent lets site operators identify crawler
	// traffic in their logs.
	DefaultUserAgent = "webcrawl/1.0 (+https://github.com/nao1215/webcrawl)"

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultOutputDir is where per-page documents are written when no
	// explicit output destination is given.
	DefaultOutputDir = "crawled_pages"

	// DefaultBatchSize is the number of seeds crawled concurrently
	// when multiple seed URLs are given.
	DefaultBatchSize = 3

	// AppName is the application name used for XDG directory paths.
	AppName = "webcrawl"
)

// Export format selectors. See the export package for the formats.
const (
	// FormatJSON is the full-fidelity structured export.
	FormatJSON = "json"

	// FormatNarrative is the consolidated readable-text export.
	FormatNarrative = "narrative"

	// FormatSummary is the analytical markdown summary export.
	FormatSummary = "summary"

	// FormatCSV is the one-row-per-page spreadsheet export.
	FormatCSV = "csv"

	// FormatDocs is the per-page markdown document export.
	FormatDocs = "docs"
)

// Config holds all configuration options for a crawl run.
// It is populated from CLI flags and passed through the application via
// dependency injection rather than global state.
//
// Design decision: A single flat struct instead of nested sub-structs.
// The option count is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// Seeds is the list of seed URLs. Each seed becomes its own crawl
	// run with fully isolated state.
	Seeds []string

	// MaxPages is the page budget per run.
	MaxPages int

	// MaxDepth is the maximum discovery depth from the seed.
	MaxDepth int

	// SameDomainOnly restricts discovered links to the seed's
	// registrable domain (example.com matches www.example.com).
	SameDomainOnly bool

	// Delay is the per-domain delay floor between requests.
	Delay time.Duration

	// MaxBackoff caps the per-domain exponential backoff delay.
	MaxBackoff time.Duration

	// MaxDomainErrors is the consecutive-failure count after which a
	// domain is skipped for the remainder of the run.
	MaxDomainErrors int

	// Concurrency is the worker pool size.
	Concurrency int

	// Timeout is the per-request fetch timeout.
	Timeout time.Duration

	// RobotsTimeout bounds robots.txt fetches.
	RobotsTimeout time.Duration

	// RespectRobots enables robots.txt compliance. When disabled the
	// robots cache is bypassed entirely.
	RespectRobots bool

	// ExtractImages enables image URL collection per page.
	ExtractImages bool

	// Deduplicate enables content-fingerprint deduplication.
	Deduplicate bool

	// MaxRetries is the fetch attempt limit for transient errors.
	MaxRetries int

	// GlobalRate is an optional requests-per-second ceiling across all
	// domains. Zero disables the global limiter; the per-domain delay
	// still applies.
	GlobalRate float64

	// Format selects the export format (json, narrative, summary, csv, docs).
	Format string

	// Output is the export destination: a file path for single-stream
	// formats (empty means stdout), or a directory for the docs format
	// (empty means DefaultOutputDir).
	Output string

	// DBDir is the directory for the SQLite run archive.
	// When empty, runs are not archived.
	DBDir string

	// ProxyURL is an optional SOCKS5 proxy address ("host:port") used
	// for all fetches, including robots.txt.
	ProxyURL string

	// UserAgent is the User-Agent header sent with all requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// RunTimeout is an optional wall-clock budget per run. When it
	// elapses the run drains gracefully, keeping partial results.
	// Zero means no wall-clock limit.
	RunTimeout time.Duration

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// ConfigFilePath is the path to the site-override file. If empty,
	// .webcrawl is searched in the current and home directories.
	ConfigFilePath string

	// Sites holds per-site overrides loaded from the config file.
	Sites *File

	// Verbose enables debug-level logging.
	Verbose bool
}

// NewConfig creates a Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases; callers override specific values after creation.
func NewConfig() *Config {
	return &Config{
		MaxPages:        DefaultMaxPages,
		MaxDepth:        DefaultMaxDepth,
		SameDomainOnly:  true,
		Delay:           DefaultDelay,
		MaxBackoff:      DefaultMaxBackoff,
		MaxDomainErrors: DefaultMaxDomainErrors,
		Concurrency:     DefaultConcurrency,
		Timeout:         DefaultTimeout,
		RobotsTimeout:   DefaultRobotsTimeout,
		RespectRobots:   true,
		Deduplicate:     true,
		MaxRetries:      DefaultMaxRetries,
		Format:          FormatDocs,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		BatchSize:       DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory used as the default
// location for the run archive.
// On Linux: ~/.local/share/webcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory.
// On Linux: ~/.config/webcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks whether the configuration is coherent.
// It returns the first problem found as a sentinel error so that
// callers can use errors.Is for programmatic handling.
//
// Validation happens once after CLI parsing, before any crawling, so
// that contradictory limits surface as a startup failure rather than a
// mid-run surprise.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxRetries < 0 {
		return ErrInvalidRetries
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.GlobalRate < 0 {
		return ErrInvalidGlobalRate
	}
	switch c.Format {
	case FormatJSON, FormatNarrative, FormatSummary, FormatCSV, FormatDocs:
	default:
		return ErrUnknownFormat
	}
	return nil
}
