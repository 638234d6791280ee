package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// FailOpen is the policy applied when robots.txt cannot be fetched or
// parsed: the URL is allowed. This matches common industry practice
// (an unreachable robots.txt usually means the site has none) and is
// the single documented constant for the behavior.
const FailOpen = true

// DefaultTTL is how long cached rules are trusted before a refetch.
const DefaultTTL = 30 * time.Minute

// Cache fetches, parses, and caches robots.txt rules per domain.
//
// Concurrent first queries for the same domain are collapsed into one
// fetch via singleflight, so a burst of workers hitting a new domain
// costs a single robots.txt request.
type Cache struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	timeout   time.Duration

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	fetched time.Time
	data    *robotstxt.RobotsData
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long cached rules are trusted.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithTimeout bounds individual robots.txt fetches. This is typically
// shorter than the page fetch timeout so a slow robots.txt does not
// stall a domain's entire crawl.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Cache) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewCache creates a robots.txt cache using the given HTTP client.
// The client should be the same one used for page fetches so that
// proxy configuration applies to robots.txt requests too.
func NewCache(client *http.Client, userAgent string, opts ...Option) *Cache {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Cache{
		client:    client,
		userAgent: userAgent,
		ttl:       DefaultTTL,
		timeout:   10 * time.Second,
		entries:   make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Allowed reports whether the target URL may be fetched according to
// the domain's robots.txt. Fetch and parse failures fall back to the
// FailOpen policy.
func (c *Cache) Allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || !target.IsAbs() {
		return false
	}

	data, err := c.rules(ctx, target)
	if err != nil || data == nil {
		return FailOpen
	}

	group := data.FindGroup(c.userAgent)
	if group == nil {
		return true
	}
	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

// CrawlDelay returns the Crawl-delay hint for the target's domain, or
// zero when the domain declares none. The crawl engine feeds this to
// the rate limiter as a per-domain floor.
func (c *Cache) CrawlDelay(target *url.URL) time.Duration {
	if target == nil {
		return 0
	}

	c.mu.RLock()
	e, ok := c.entries[cacheKey(target)]
	c.mu.RUnlock()
	if !ok || e.data == nil {
		return 0
	}

	group := e.data.FindGroup(c.userAgent)
	if group == nil {
		return 0
	}
	return group.CrawlDelay
}

// rules returns the cached rule set for the target's domain, fetching
// robots.txt when the cache is cold or the entry has outlived its TTL.
func (c *Cache) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	key := cacheKey(target)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Since(e.fetched) < c.ttl {
		return e.data, nil
	}

	// Collapse concurrent cold-cache fetches for the same domain.
	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another goroutine may have filled the cache while this one
		// waited on the singleflight lock.
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && time.Since(e.fetched) < c.ttl {
			return e.data, nil
		}

		data, err := c.fetch(ctx, target)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry{fetched: time.Now(), data: data}
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	data, _ := v.(*robotstxt.RobotsData)
	return data, nil
}

// fetch retrieves and parses /robots.txt for the target's domain.
// A 4xx/5xx status is treated as "no rules" (allow-all) rather than an
// error, matching the FailOpen policy; malformed content likewise.
func (c *Cache) fetch(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return allowAll(), nil
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		// Malformed robots.txt is not a reason to skip a site.
		return allowAll(), nil
	}
	return data, nil
}

// allowAll returns an empty rule set that permits everything.
func allowAll() *robotstxt.RobotsData {
	data, _ := robotstxt.FromString("")
	return data
}

// cacheKey returns the per-domain cache key for a URL.
func cacheKey(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
