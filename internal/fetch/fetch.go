package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnsupportedContentType is returned when a response is not HTML.
// Non-HTML URLs are recorded as skipped rather than retried: the
// content type will not change on a second attempt.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Response is the outcome of a single fetch attempt.
type Response struct {
	// StatusCode is the HTTP response status.
	StatusCode int

	// ContentType is the media type portion of the Content-Type header.
	ContentType string

	// FinalURL is the URL the response was ultimately served from.
	// It differs from the requested URL when redirects were followed.
	FinalURL *url.URL

	// Body is the response body, capped at the configured size limit.
	Body []byte

	// FetchedAt is when the request started.
	FetchedAt time.Time

	// Duration is how long the round trip and body read took.
	Duration time.Duration
}

// Fetcher performs single HTTP GET attempts. Retry policy lives in the
// crawl engine; the fetcher only knows how to fetch one page once.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// NewFetcher creates a Fetcher using the given client.
// maxBodySize caps how many body bytes are read; zero falls back to 5MB.
func NewFetcher(client *http.Client, userAgent string, maxBodySize int64) *Fetcher {
	if maxBodySize <= 0 {
		maxBodySize = 5 * 1024 * 1024
	}
	return &Fetcher{
		client:      client,
		userAgent:   userAgent,
		maxBodySize: maxBodySize,
	}
}

// Fetch performs one GET of u. Extra headers (per-site overrides) are
// applied after the defaults so they can replace them.
//
// A non-2xx status is not an error by itself: the caller inspects
// StatusCode to classify transient vs permanent failures. An error is
// returned only for transport problems, body read failures, and
// non-HTML content (ErrUnsupportedContentType, with the Response still
// populated so the status can be recorded).
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := mediaType(resp.Header.Get("Content-Type"))
	result := &Response{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		FinalURL:    resp.Request.URL,
		FetchedAt:   start,
	}

	if !isHTML(contentType) {
		result.Duration = time.Since(start)
		return result, ErrUnsupportedContentType
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	result.Body = body
	result.Duration = time.Since(start)
	return result, nil
}

// Retryable reports whether a failed attempt is worth repeating.
// Transport errors and server-side conditions (5xx, 429) are
// transient; client errors are permanent.
func Retryable(statusCode int, err error) bool {
	if err != nil && !errors.Is(err, ErrUnsupportedContentType) {
		return true
	}
	if errors.Is(err, ErrUnsupportedContentType) {
		return false
	}
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

// mediaType strips parameters like "; charset=utf-8" from a
// Content-Type header value.
func mediaType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// isHTML reports whether the media type is parseable page content.
// An empty content type is treated as HTML because some minimal
// servers omit the header entirely.
func isHTML(mediaType string) bool {
	switch mediaType {
	case "", "text/html", "application/xhtml+xml", "application/xhtml":
		return true
	default:
		return false
	}
}
