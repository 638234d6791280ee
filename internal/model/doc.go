// Package model defines the data structures shared across the crawl
// engine: page records, run summaries, and crawl results.
//
// The package has no behavior beyond small derived-value helpers; it
// exists so that the crawler, extractor, exporters, and archive agree
// on one representation without importing each other.
package model
