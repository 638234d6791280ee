package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/webcrawl/internal/config"
	"github.com/nao1215/webcrawl/internal/extract"
	"github.com/nao1215/webcrawl/internal/fetch"
	"github.com/nao1215/webcrawl/internal/model"
	"github.com/nao1215/webcrawl/internal/ratelimit"
	"github.com/nao1215/webcrawl/internal/robots"
)

// ErrSeedRejected is returned when the seed URL itself fails frontier
// admission, for example a denied file extension.
var ErrSeedRejected = errors.New("crawler: seed URL rejected by frontier")

// idlePollInterval is how long a worker sleeps when the frontier is
// momentarily empty but other workers are still fetching.
const idlePollInterval = 25 * time.Millisecond

// Progress is a point-in-time snapshot of a running crawl, safe to
// read from another goroutine while Run is in flight.
type Progress struct {
	State             model.RunState
	PagesCrawled      int
	URLsDiscovered    int
	Pending           int
	FetchErrors       int
	DuplicatesSkipped int
	RobotsBlocked     int
}

// Engine executes one crawl run from a single seed URL. It owns the
// frontier, the worker pool, and all per-run counters. An Engine is
// single-use: create one per run.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	seed      *url.URL
	fetcher   *fetch.Fetcher
	robots    *robots.Cache
	limiter   *ratelimit.Limiter
	extractor *extract.Extractor
	frontier  *Frontier
	dedup     *dedupIndex

	mu        sync.Mutex
	summary   model.RunSummary
	records   []model.PageRecord
	failures  []model.FetchFailure
	inflight  int
	budgetHit bool
}

// New creates an Engine for the given seed URL. The configuration must
// already be validated.
func New(cfg *config.Config, seedURL string, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	seed, _, err := normalizeURL(seedURL)
	if err != nil {
		return nil, fmt.Errorf("crawler: invalid seed URL %q: %w", seedURL, err)
	}

	client, err := fetch.NewClient(cfg.Timeout, cfg.ProxyURL)
	if err != nil {
		return nil, err
	}

	limiterOpts := []ratelimit.Option{
		ratelimit.WithMaxBackoff(cfg.MaxBackoff),
		ratelimit.WithMaxConsecutiveErrors(cfg.MaxDomainErrors),
	}
	if cfg.GlobalRate > 0 {
		limiterOpts = append(limiterOpts, ratelimit.WithGlobalRate(cfg.GlobalRate))
	}

	return &Engine{
		cfg:     cfg,
		logger:  logger,
		seed:    seed,
		fetcher: fetch.NewFetcher(client, cfg.UserAgent, cfg.MaxBodySize),
		robots: robots.NewCache(client, cfg.UserAgent,
			robots.WithTimeout(cfg.RobotsTimeout),
			robots.WithTTL(config.DefaultRobotsTTL)),
		limiter:   ratelimit.New(cfg.Delay, limiterOpts...),
		extractor: extract.New(extract.WithImages(cfg.ExtractImages)),
		frontier:  NewFrontier(seed, cfg.MaxDepth, cfg.SameDomainOnly),
		dedup:     newDedupIndex(),
		summary:   model.NewRunSummary(seed.String()),
	}, nil
}

// Run drives the crawl to completion and returns the collected result.
// The returned error is non-nil only when the run was cut short by the
// context; partial results are still returned in that case.
func (e *Engine) Run(ctx context.Context) (*model.CrawlResult, error) {
	if e.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RunTimeout)
		defer cancel()
	}

	e.mu.Lock()
	e.summary.State = model.StateRunning
	e.summary.StartedAt = time.Now()
	e.mu.Unlock()

	if !e.frontier.Offer(e.seed.String(), 0) {
		e.finish(model.StateFailed)
		return e.result(), ErrSeedRejected
	}
	e.countDiscovered(1)

	g, gctx := errgroup.WithContext(ctx)
	for range e.cfg.Concurrency {
		g.Go(func() error { return e.worker(gctx) })
	}
	err := g.Wait()

	switch {
	case err != nil:
		e.finish(model.StateCancelled)
	case e.isBudgetHit():
		e.finish(model.StateBudgetExhausted)
	default:
		e.finish(model.StateCompleted)
	}

	progress := e.Progress()
	e.logger.Debug("crawl finished",
		"seed", e.seed.String(),
		"state", string(progress.State),
		"pages", progress.PagesCrawled)
	return e.result(), err
}

// Progress returns a snapshot of the run counters.
func (e *Engine) Progress() Progress {
	return e.snapshotProgress()
}

func (e *Engine) snapshotProgress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Progress{
		State:             e.summary.State,
		PagesCrawled:      e.summary.PagesCrawled,
		URLsDiscovered:    e.summary.URLsDiscovered,
		Pending:           e.frontier.Len(),
		FetchErrors:       e.summary.FetchErrors,
		DuplicatesSkipped: e.summary.DuplicatesSkipped,
		RobotsBlocked:     e.summary.RobotsBlocked,
	}
}

// worker pulls entries until the run is drained or the context ends.
func (e *Engine) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entry, ok := e.take()
		if !ok {
			if e.drained() {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(idlePollInterval):
			}
			continue
		}

		e.process(ctx, entry)
		e.release()
	}
}

// take claims the next entry and counts it as in flight. It refuses
// once the page budget is hit so workers wind down instead of fetching
// pages that would be dropped.
func (e *Engine) take() (Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.budgetHit {
		return Entry{}, false
	}
	entry, ok := e.frontier.Take()
	if ok {
		e.inflight++
	}
	return entry, ok
}

func (e *Engine) release() {
	e.mu.Lock()
	e.inflight--
	e.mu.Unlock()
}

// drained reports whether no work remains: the budget is exhausted, or
// the frontier is empty with no fetch in flight that could refill it.
func (e *Engine) drained() bool {
	e.mu.Lock()
	stop := e.budgetHit
	inflight := e.inflight
	e.mu.Unlock()
	return stop || (inflight == 0 && e.frontier.Len() == 0)
}

// process fetches one entry, extracts it, and feeds discovered links
// back into the frontier.
func (e *Engine) process(ctx context.Context, entry Entry) {
	host := entry.URL.Hostname()

	var site config.SiteConfig
	if e.cfg.Sites != nil {
		site = e.cfg.Sites.GetSiteConfig(host)
	}
	if site.Delay > 0 {
		e.limiter.SetFloor(host, site.Delay)
	}
	if site.MaxDepth > 0 && entry.Depth > site.MaxDepth {
		return
	}

	if e.cfg.RespectRobots {
		if !e.robots.Allowed(ctx, entry.URL) {
			e.mu.Lock()
			e.summary.RobotsBlocked++
			e.mu.Unlock()
			e.logger.Debug("blocked by robots.txt", "url", entry.URL.String())
			return
		}
		if delay := e.robots.CrawlDelay(entry.URL); delay > 0 {
			e.limiter.SetFloor(host, delay)
		}
	}

	resp, attempts, err := e.fetchWithRetry(ctx, entry, host, site.Headers)
	if err != nil {
		switch {
		case errors.Is(err, ratelimit.ErrDomainSkipped):
			e.recordFailure(entry, 0, attempts, "domain skipped after repeated failures")
		case errors.Is(err, fetch.ErrUnsupportedContentType):
			contentType := ""
			if resp != nil {
				contentType = resp.ContentType
			}
			e.logger.Debug("skipping non-HTML resource",
				"url", entry.URL.String(), "content_type", contentType)
		case ctx.Err() != nil:
			// Cut short by cancellation, not a page failure.
		default:
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			e.recordFailure(entry, status, attempts, err.Error())
			e.logger.Warn("fetch failed",
				"url", entry.URL.String(), "attempts", attempts, "error", err)
		}
		return
	}

	// When the fetch followed redirects, the landing URL's content has
	// just been delivered; keep it out of the frontier so a page
	// reachable both directly and through a redirect is fetched once.
	if resp.FinalURL != nil && resp.FinalURL.String() != entry.URL.String() {
		e.frontier.MarkVisited(resp.FinalURL.String())
	}

	ex := e.extractor.Extract(resp.Body, entry.URL)
	fingerprint := Fingerprint(ex.Text)

	// Outbound links feed the frontier even when the page body turns
	// out to be a duplicate; a mirror can still reveal new URLs.
	discovered := 0
	for _, link := range ex.Links {
		if e.frontier.Offer(link, entry.Depth+1) {
			discovered++
		}
	}
	e.countDiscovered(discovered)

	if e.cfg.Deduplicate && e.dedup.Seen(fingerprint) {
		e.mu.Lock()
		e.summary.DuplicatesSkipped++
		e.mu.Unlock()
		e.logger.Debug("duplicate content skipped", "url", entry.URL.String())
		return
	}

	e.appendRecord(model.PageRecord{
		URL:           entry.URL.String(),
		Title:         ex.Title,
		Content:       ex.Text,
		Description:   ex.Description,
		Keywords:      ex.Keywords,
		Links:         ex.Links,
		Images:        ex.Images,
		StatusCode:    resp.StatusCode,
		Depth:         entry.Depth,
		WordCount:     model.CountWords(ex.Text),
		FetchedAt:     resp.FetchedAt,
		FetchDuration: resp.Duration,
		Fingerprint:   fingerprint,
	})
	e.logger.Debug("page crawled",
		"url", entry.URL.String(), "depth", entry.Depth, "status", resp.StatusCode)
}

// fetchWithRetry fetches one URL, retrying transient failures with
// exponential backoff. It returns the number of attempts made.
func (e *Engine) fetchWithRetry(ctx context.Context, entry Entry, host string, headers map[string]string) (*fetch.Response, int, error) {
	var (
		resp    *fetch.Response
		lastErr error
	)

	attempts := 0
	// MaxRetries counts attempts; zero still means one fetch.
	for attempt := range max(1, e.cfg.MaxRetries) {
		if attempt > 0 {
			backoff := time.Second << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, attempts, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := e.limiter.Acquire(ctx, host); err != nil {
			return nil, attempts, err
		}
		e.limiter.RecordAttempt(host)
		attempts++

		reqCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		r, rawErr := e.fetcher.Fetch(reqCtx, entry.URL, headers)
		cancel()

		status := 0
		if r != nil {
			status = r.StatusCode
		}

		if rawErr == nil && status >= 200 && status < 300 {
			e.limiter.RecordSuccess(host)
			return r, attempts, nil
		}
		if errors.Is(rawErr, fetch.ErrUnsupportedContentType) && status < 400 {
			// The server answered fine; the resource is just not a
			// page. No penalty, no retry.
			e.limiter.RecordSuccess(host)
			return r, attempts, rawErr
		}

		// Error statuses count against the domain even when the body
		// was not HTML.
		err := rawErr
		if err == nil || errors.Is(err, fetch.ErrUnsupportedContentType) {
			err = fmt.Errorf("unexpected HTTP status %d", status)
			rawErr = nil
		}

		e.limiter.RecordFailure(host)
		resp, lastErr = r, err

		if !fetch.Retryable(status, rawErr) {
			break
		}
	}
	return resp, attempts, lastErr
}

func (e *Engine) appendRecord(r model.PageRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.records) >= e.cfg.MaxPages {
		e.budgetHit = true
		return
	}
	e.records = append(e.records, r)
	e.summary.PagesCrawled++
	e.summary.TotalWords += r.WordCount
	if len(e.records) >= e.cfg.MaxPages {
		e.budgetHit = true
	}
}

func (e *Engine) recordFailure(entry Entry, statusCode, attempts int, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, model.FetchFailure{
		URL:        entry.URL.String(),
		Depth:      entry.Depth,
		StatusCode: statusCode,
		Attempts:   attempts,
		Reason:     reason,
	})
	e.summary.FetchErrors++
}

func (e *Engine) countDiscovered(n int) {
	if n == 0 {
		return
	}
	e.mu.Lock()
	e.summary.URLsDiscovered += n
	e.mu.Unlock()
}

func (e *Engine) isBudgetHit() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.budgetHit
}

func (e *Engine) finish(state model.RunState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.summary.State = state
	e.summary.FinishedAt = time.Now()
}

// result snapshots the collected records and failures.
func (e *Engine) result() *model.CrawlResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &model.CrawlResult{
		Summary:  e.summary,
		Records:  slices.Clone(e.records),
		Failures: slices.Clone(e.failures),
	}
}
