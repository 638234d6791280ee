package model

import (
	"time"

	"github.com/google/uuid"
)

// RunState describes the lifecycle state of a crawl run.
//
// Design decision: We use a string type rather than iota constants
// because states appear in JSON exports and the SQLite archive, where
// a self-describing value beats a bare integer.
type RunState string

// Crawl run states. A run starts Idle, moves to Running when the first
// worker picks up the seed, and finishes in exactly one terminal state.
const (
	// StateIdle means the run has been created but not started.
	StateIdle RunState = "idle"

	// StateRunning means workers are actively crawling.
	StateRunning RunState = "running"

	// StateCompleted means the frontier was exhausted with budget to spare.
	StateCompleted RunState = "completed"

	// StateBudgetExhausted means the max-pages budget stopped the run.
	// Like StateCompleted this is a successful terminal state.
	StateBudgetExhausted RunState = "budget_exhausted"

	// StateCancelled means an external cancellation signal stopped the
	// run. Records collected before cancellation remain valid.
	StateCancelled RunState = "cancelled"

	// StateFailed means a configuration error (such as an unparseable
	// seed URL) prevented the run from fetching anything.
	StateFailed RunState = "failed"
)

// Terminal reports whether the state is a terminal state.
func (s RunState) Terminal() bool {
	switch s {
	case StateCompleted, StateBudgetExhausted, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

// RunSummary holds aggregate metadata for a single crawl run.
type RunSummary struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// SeedURL is the URL the crawl started from.
	SeedURL string `json:"seed_url"`

	// State is the terminal state the run finished in.
	State RunState `json:"state"`

	// StartedAt and FinishedAt bound the run's wall-clock time.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// PagesCrawled is the number of successful PageRecords collected.
	PagesCrawled int `json:"pages_crawled"`

	// URLsDiscovered is the number of unique URLs accepted into the frontier.
	URLsDiscovered int `json:"urls_discovered"`

	// DuplicatesSkipped counts pages dropped by content deduplication.
	DuplicatesSkipped int `json:"duplicates_skipped"`

	// RobotsBlocked counts URLs skipped due to robots.txt rules.
	RobotsBlocked int `json:"robots_blocked"`

	// FetchErrors counts URLs that failed all fetch attempts.
	FetchErrors int `json:"fetch_errors"`

	// TotalWords is the sum of WordCount across all records.
	TotalWords int `json:"total_words"`
}

// NewRunSummary creates a RunSummary for a run starting now.
func NewRunSummary(seedURL string) RunSummary {
	return RunSummary{
		RunID:     uuid.NewString(),
		SeedURL:   seedURL,
		State:     StateIdle,
		StartedAt: time.Now().UTC(),
	}
}

// Duration returns the wall-clock duration of the run.
func (s RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// PagesPerSecond returns the crawl throughput, or zero for an empty run.
func (s RunSummary) PagesPerSecond() float64 {
	d := s.Duration().Seconds()
	if d <= 0 {
		return 0
	}
	return float64(s.PagesCrawled) / d
}

// CrawlResult is the full output of one crawl run: the collected page
// records in discovery-completion order, the failures, and the summary.
// Exporters consume CrawlResult values and never mutate them.
type CrawlResult struct {
	// Summary holds the run metadata and counters.
	Summary RunSummary `json:"summary"`

	// Records are the successful page records in collection order.
	Records []PageRecord `json:"records"`

	// Failures are URLs that could not be fetched.
	Failures []FetchFailure `json:"failures,omitempty"`
}
