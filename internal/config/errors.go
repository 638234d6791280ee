package config

import "errors"

// Configuration validation errors returned by Config.Validate().
//
// Design decision: Package-level sentinel errors rather than error
// values created inside Validate(). Callers can use errors.Is() for
// programmatic handling while still getting a human-readable message.
var (
	// ErrNoSeed is returned when no seed URL is specified.
	ErrNoSeed = errors.New("no seed URL specified")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	// A budget of zero would mean the run can never collect anything.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	// Depth 0 is valid and means "crawl only the seed page".
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	// A zero timeout would cause immediate fetch failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the per-domain delay is negative.
	// Use 0 for no politeness delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidRetries is returned when the retry limit is negative.
	// Use 0 to disable retries entirely.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body size cap is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidGlobalRate is returned when the global rate ceiling is
	// negative. Use 0 to disable the global limiter.
	ErrInvalidGlobalRate = errors.New("invalid global rate: must be non-negative")

	// ErrUnknownFormat is returned when the export format selector is
	// not one of json, narrative, summary, csv, or docs.
	ErrUnknownFormat = errors.New("unknown export format: must be json, narrative, summary, csv, or docs")
)
