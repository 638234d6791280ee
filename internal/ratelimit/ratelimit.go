package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrDomainSkipped is returned by Acquire for a domain that exceeded
// its consecutive-error budget and is skipped for the rest of the run.
var ErrDomainSkipped = errors.New("domain skipped after repeated failures")

// Limiter enforces per-domain politeness: a configurable delay floor
// between requests to the same domain, exponential backoff after
// failures, decay after successes, and an optional global
// requests-per-second ceiling across all domains.
//
// The wait-check-and-record sequence is a critical section: two
// workers targeting the same domain must never both observe "no wait
// needed" and fire simultaneously, so Acquire claims the next request
// slot under the lock before releasing it.
type Limiter struct {
	base       time.Duration
	maxBackoff time.Duration
	maxErrors  int
	global     *rate.Limiter

	mu      sync.Mutex
	domains map[string]*domainState
}

// domainState tracks one domain's politeness bookkeeping.
type domainState struct {
	// last is when the previous request to the domain was claimed.
	last time.Time

	// delay is the current required gap between requests. It starts
	// at the domain's floor, doubles on failure up to the backoff
	// ceiling, and halves back toward the floor on success.
	delay time.Duration

	// floor is the minimum delay for this domain: the configured base
	// raised by robots.txt Crawl-delay or site overrides.
	floor time.Duration

	// errs counts consecutive failures.
	errs int

	// skipped marks the domain as permanently excluded for this run.
	skipped bool
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMaxBackoff caps the exponential backoff delay.
func WithMaxBackoff(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.maxBackoff = d
		}
	}
}

// WithMaxConsecutiveErrors sets how many consecutive failures a domain
// may accumulate before being skipped for the remainder of the run.
// Zero disables the skip behavior.
func WithMaxConsecutiveErrors(n int) Option {
	return func(l *Limiter) {
		l.maxErrors = n
	}
}

// WithGlobalRate adds a token-bucket ceiling of rps requests per second
// across all domains. Zero or negative disables it.
func WithGlobalRate(rps float64) Option {
	return func(l *Limiter) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			l.global = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// New creates a Limiter with the given per-domain base delay.
func New(base time.Duration, opts ...Option) *Limiter {
	if base < 0 {
		base = 0
	}
	l := &Limiter{
		base:       base,
		maxBackoff: 60 * time.Second,
		maxErrors:  5,
		domains:    make(map[string]*domainState),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// state returns the tracked state for a domain, creating it on first
// use. Callers must hold l.mu.
func (l *Limiter) state(domain string) *domainState {
	s, ok := l.domains[domain]
	if !ok {
		s = &domainState{delay: l.base, floor: l.base}
		l.domains[domain] = s
	}
	return s
}

// effectiveDelay is the required gap for the domain right now.
// Callers must hold l.mu.
func (s *domainState) effectiveDelay() time.Duration {
	if s.delay < s.floor {
		return s.floor
	}
	return s.delay
}

// WaitTime returns how long a caller must wait before the next request
// to the domain. Zero means enough time has already elapsed.
func (l *Limiter) WaitTime(domain string) time.Duration {
	domain = normalizeDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state(domain)
	if s.last.IsZero() {
		return 0
	}
	rest := s.effectiveDelay() - time.Since(s.last)
	if rest < 0 {
		return 0
	}
	return rest
}

// RecordAttempt updates the domain's last-request timestamp. It is
// called immediately before each fetch so concurrent workers hitting
// the same domain serialize correctly.
func (l *Limiter) RecordAttempt(domain string) {
	domain = normalizeDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state(domain).last = time.Now()
}

// RecordSuccess decays the domain's backoff delay halfway toward its
// floor and clears the consecutive-error count.
func (l *Limiter) RecordSuccess(domain string) {
	domain = normalizeDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state(domain)
	s.errs = 0
	s.delay /= 2
	if s.delay < s.floor {
		s.delay = s.floor
	}
}

// RecordFailure doubles the domain's backoff delay up to the ceiling
// and counts the failure. When the consecutive-error budget is spent
// the domain is skipped for the remainder of the run.
func (l *Limiter) RecordFailure(domain string) {
	domain = normalizeDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state(domain)
	if s.delay <= 0 {
		s.delay = time.Second
	} else {
		s.delay *= 2
	}
	if s.delay > l.maxBackoff {
		s.delay = l.maxBackoff
	}

	s.errs++
	if l.maxErrors > 0 && s.errs >= l.maxErrors {
		s.skipped = true
	}
}

// Skipped reports whether the domain has been excluded for this run.
func (l *Limiter) Skipped(domain string) bool {
	domain = normalizeDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state(domain).skipped
}

// SetFloor raises the domain's minimum delay, typically from a
// robots.txt Crawl-delay hint or a site override. A floor below the
// current one is ignored; the floor never drops during a run.
func (l *Limiter) SetFloor(domain string, d time.Duration) {
	if d <= 0 {
		return
	}
	domain = normalizeDomain(domain)
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state(domain)
	if d > s.floor {
		s.floor = d
	}
}

// Acquire blocks until the caller may fetch from the domain, then
// claims the request slot. The check and the claim happen under one
// lock acquisition, so concurrent workers on the same domain line up
// one full delay apart instead of racing through together.
func (l *Limiter) Acquire(ctx context.Context, domain string) error {
	domain = normalizeDomain(domain)

	if l.global != nil {
		if err := l.global.Wait(ctx); err != nil {
			return err
		}
	}

	for {
		l.mu.Lock()
		s := l.state(domain)
		if s.skipped {
			l.mu.Unlock()
			return ErrDomainSkipped
		}

		var rest time.Duration
		if !s.last.IsZero() {
			rest = s.effectiveDelay() - time.Since(s.last)
		}
		if rest <= 0 {
			s.last = time.Now()
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		timer := time.NewTimer(rest)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// normalizeDomain lower-cases the domain so "Example.com" and
// "example.com" share one state entry.
func normalizeDomain(domain string) string {
	return strings.ToLower(domain)
}
