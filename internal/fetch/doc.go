// Package fetch builds the HTTP client used by the crawl engine and
// performs single page-fetch attempts with body size limits and
// content-type gating. Retry policy belongs to the crawler.
package fetch
