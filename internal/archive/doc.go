// Package archive persists crawl runs to SQLite. Each run is stored
// whole and can be loaded back for re-export without re-crawling.
package archive
