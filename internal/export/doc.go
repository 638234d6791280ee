// Package export renders crawl results into their output formats:
// machine-readable JSON, a narrative plain-text report, an analytical
// markdown summary, a one-row-per-page CSV, and a directory of
// per-page markdown documents.
//
// All writers render records in collection order and never sort, so
// exporting the same result twice produces byte-identical output.
package export
