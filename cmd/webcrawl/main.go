// Package main provides the entry point for the webcrawl CLI.
//
// webcrawl fetches a website starting from one or more seed URLs,
// extracts readable content from each page, and exports the result as
// JSON, markdown documents, a narrative report, or a summary.
//
// Usage:
//
//	webcrawl crawl <url>
//	webcrawl crawl --format json <url>
//
// See --help for all available options.
package main

// main is the entry point for webcrawl.
func main() {
	Execute()
}
