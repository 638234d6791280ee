package model

import (
	"strings"
	"time"
)

// PageRecord is the immutable result of successfully crawling and
// extracting one URL. It is created once by the crawl engine and never
// modified afterwards; exporters receive the final slice read-only.
//
// Design decision: We store extracted text rather than raw HTML because:
//  1. The primary consumers are LLM pipelines that want clean prose
//  2. Raw bodies can be several MB each; text is typically a fraction
//  3. Code blocks are preserved as fenced spans inside the text
type PageRecord struct {
	// URL is the normalized URL the page was fetched from.
	URL string `json:"url"`

	// Title is the page title from <title> or OpenGraph metadata.
	Title string `json:"title,omitempty"`

	// Content is the extracted body text. Code blocks appear as
	// fenced spans (```lang ... ```) so downstream consumers can
	// distinguish code from prose.
	Content string `json:"content"`

	// Description is the meta description, OpenGraph description,
	// or the first paragraph when neither is present.
	Description string `json:"description,omitempty"`

	// Keywords is the comma-split meta keyword list.
	Keywords []string `json:"keywords,omitempty"`

	// Links contains outbound link URLs in document order with
	// duplicates removed. All entries are absolute http(s) URLs.
	Links []string `json:"links,omitempty"`

	// Images contains image URLs referenced by the page.
	// Only populated when image extraction is enabled.
	Images []string `json:"images,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Depth is the distance from the seed URL. The seed is depth 0,
	// pages discovered on the seed are depth 1, and so on.
	Depth int `json:"depth"`

	// WordCount is the number of whitespace-separated words in Content.
	WordCount int `json:"word_count"`

	// FetchedAt is when the page fetch started.
	FetchedAt time.Time `json:"fetched_at"`

	// FetchDuration is how long the fetch took.
	FetchDuration time.Duration `json:"fetch_duration"`

	// Fingerprint is the hash of the normalized content, used for
	// duplicate detection across the run.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// CountWords returns the number of whitespace-separated words in text.
// An empty or whitespace-only text counts zero words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Extraction holds the content fields produced by the extractor for a
// single page. The crawl engine combines it with fetch metadata to
// build a PageRecord.
type Extraction struct {
	// Title is the best available page title.
	Title string

	// Text is the extracted body text with code blocks preserved.
	Text string

	// Description is the page description.
	Description string

	// Keywords is the meta keyword list.
	Keywords []string

	// Links contains absolute outbound link URLs in document order.
	Links []string

	// Images contains absolute image URLs.
	Images []string
}

// FetchFailure records a URL that could not be fetched after all retry
// attempts, or that was rejected for a permanent reason. Failures never
// abort the run; they are reported in the run summary.
type FetchFailure struct {
	// URL is the normalized URL that failed.
	URL string `json:"url"`

	// Depth is the crawl depth at which the URL was attempted.
	Depth int `json:"depth"`

	// StatusCode is the last HTTP status received, or 0 when the
	// failure happened before a response arrived.
	StatusCode int `json:"status_code,omitempty"`

	// Attempts is the number of fetch attempts made.
	Attempts int `json:"attempts"`

	// Reason is a short human-readable failure description.
	Reason string `json:"reason"`
}
