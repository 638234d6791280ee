// Package crawler implements the crawl engine: a frontier that owns
// URL normalization and admission, a content dedup index, and a worker
// pool that drives fetching, extraction, and link discovery for one
// seed per Engine. RunBatch fans multiple seeds out over isolated
// engines with a bounded degree of parallelism.
package crawler
