package crawler

import (
	"errors"
	"net/url"
	"path"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// ErrUnsupportedScheme is returned when a URL is not http or https.
var ErrUnsupportedScheme = errors.New("crawler: URL scheme is not http or https")

// skippedExtensions are path suffixes that identify binary or media
// resources. URLs ending in one of these never enter the frontier.
var skippedExtensions = map[string]bool{
	".pdf": true, ".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".svg": true, ".webp": true, ".zip": true,
	".tar": true, ".gz": true, ".rar": true, ".doc": true,
	".docx": true, ".xls": true, ".xlsx": true, ".ppt": true,
	".pptx": true, ".mp3": true, ".mp4": true, ".avi": true,
	".mov": true, ".wmv": true,
}

// Entry is one URL scheduled for fetching.
type Entry struct {
	URL   *url.URL
	Depth int
}

// Frontier is the crawl queue. It owns URL normalization and admission:
// a URL is accepted at most once per run, no matter how many pages link
// to it, and rejected when it falls outside the depth or domain scope.
//
// Design decision: admission is decided at Offer time rather than Take
// time, so Len reflects real pending work and a page linking to itself
// or to already-queued URLs costs nothing.
type Frontier struct {
	mu         sync.Mutex
	queue      []Entry
	seen       map[string]bool
	maxDepth   int
	sameDomain bool
	seedDomain string
	visited    int
}

// NewFrontier creates a frontier scoped to the seed URL. When
// sameDomainOnly is set, only URLs sharing the seed's registrable
// domain are admitted, so blog.example.com and example.com count as
// the same site while example.co.uk and other.co.uk do not.
func NewFrontier(seed *url.URL, maxDepth int, sameDomainOnly bool) *Frontier {
	return &Frontier{
		seen:       make(map[string]bool),
		maxDepth:   maxDepth,
		sameDomain: sameDomainOnly,
		seedDomain: registrableDomain(seed.Hostname()),
	}
}

// Offer normalizes rawURL and appends it to the queue if it passes
// admission. It reports whether the URL was accepted.
func (f *Frontier) Offer(rawURL string, depth int) bool {
	u, key, err := normalizeURL(rawURL)
	if err != nil {
		return false
	}
	if depth > f.maxDepth {
		return false
	}
	if skippedExtensions[strings.ToLower(path.Ext(u.Path))] {
		return false
	}
	if f.sameDomain && registrableDomain(u.Hostname()) != f.seedDomain {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	f.queue = append(f.queue, Entry{URL: u, Depth: depth})
	return true
}

// Take removes and returns the oldest pending entry.
func (f *Frontier) Take() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return Entry{}, false
	}
	entry := f.queue[0]
	f.queue = f.queue[1:]
	f.visited++
	return entry, true
}

// MarkVisited records rawURL as seen without queueing it. Used when a
// fetch is redirected so the landing URL is not fetched again. A
// pending entry for the same URL is withdrawn from the queue, since
// its content was just delivered through the redirect.
func (f *Frontier) MarkVisited(rawURL string) {
	_, key, err := normalizeURL(rawURL)
	if err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] {
		for i, entry := range f.queue {
			if entry.URL.String() == key {
				f.queue = append(f.queue[:i], f.queue[i+1:]...)
				break
			}
		}
		return
	}
	f.seen[key] = true
}

// Len returns the number of pending entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Visited returns the number of entries handed out so far.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited
}

// normalizeURL parses rawURL into canonical form: lowercased scheme
// and host, fragment stripped, and an explicit "/" path. The returned
// key is the canonical string used for dedup.
func normalizeURL(rawURL string) (*url.URL, string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", ErrUnsupportedScheme
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u, u.String(), nil
}

// registrableDomain reduces a hostname to its eTLD+1. Hosts the public
// suffix list cannot resolve (IPs, localhost) fall back to the literal
// hostname, which still groups exact matches together.
func registrableDomain(host string) string {
	host = strings.ToLower(host)
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
