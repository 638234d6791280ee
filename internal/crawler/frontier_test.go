package crawler

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse URL %q: %v", raw, err)
	}
	return u
}

// TestFrontierOffer tests URL admission rules.
func TestFrontierOffer(t *testing.T) {
	t.Parallel()

	t.Run("accepts a fresh URL exactly once", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 3, true)
		if !f.Offer("https://example.com/page", 0) {
			t.Fatal("expected first offer to be accepted")
		}
		if f.Offer("https://example.com/page", 0) {
			t.Error("expected repeated offer to be rejected")
		}
		if f.Len() != 1 {
			t.Errorf("expected queue length 1, got %d", f.Len())
		}
	})

	t.Run("treats URL variants as the same URL", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 3, true)
		if !f.Offer("HTTPS://EXAMPLE.COM/page", 0) {
			t.Fatal("expected first offer to be accepted")
		}
		if f.Offer("https://example.com/page#section", 1) {
			t.Error("expected fragment variant to be rejected as duplicate")
		}
	})

	t.Run("normalizes empty path to root", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 3, true)
		if !f.Offer("https://example.com", 0) {
			t.Fatal("expected offer to be accepted")
		}
		if f.Offer("https://example.com/", 0) {
			t.Error("expected root path variant to be rejected as duplicate")
		}

		entry, ok := f.Take()
		if !ok {
			t.Fatal("expected an entry")
		}
		if entry.URL.Path != "/" {
			t.Errorf("expected path %q, got %q", "/", entry.URL.Path)
		}
	})

	t.Run("rejects URLs beyond max depth", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 2, true)
		if !f.Offer("https://example.com/ok", 2) {
			t.Error("expected offer at max depth to be accepted")
		}
		if f.Offer("https://example.com/deep", 3) {
			t.Error("expected offer beyond max depth to be rejected")
		}
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 3, true)
		for _, raw := range []string{"ftp://example.com/file", "mailto:a@example.com", "javascript:void(0)"} {
			if f.Offer(raw, 0) {
				t.Errorf("expected %q to be rejected", raw)
			}
		}
	})

	t.Run("rejects binary and media extensions", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 3, true)
		for _, raw := range []string{
			"https://example.com/report.pdf",
			"https://example.com/photo.JPG",
			"https://example.com/archive.tar",
		} {
			if f.Offer(raw, 0) {
				t.Errorf("expected %q to be rejected", raw)
			}
		}
		if !f.Offer("https://example.com/page.html", 0) {
			t.Error("expected HTML page to be accepted")
		}
	})

	t.Run("restricts to the seed's registrable domain", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://www.example.com/"), 3, true)
		if !f.Offer("https://blog.example.com/post", 1) {
			t.Error("expected subdomain of the seed domain to be accepted")
		}
		if f.Offer("https://other.com/page", 1) {
			t.Error("expected foreign domain to be rejected")
		}
	})

	t.Run("allows foreign domains when unrestricted", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 3, false)
		if !f.Offer("https://other.com/page", 1) {
			t.Error("expected foreign domain to be accepted")
		}
	})
}

// TestFrontierTake tests FIFO ordering and exhaustion.
func TestFrontierTake(t *testing.T) {
	t.Parallel()

	t.Run("returns entries in offer order", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 3, true)
		f.Offer("https://example.com/a", 0)
		f.Offer("https://example.com/b", 1)

		first, ok := f.Take()
		if !ok || first.URL.Path != "/a" {
			t.Errorf("expected /a first, got %+v (ok=%v)", first, ok)
		}
		second, ok := f.Take()
		if !ok || second.URL.Path != "/b" || second.Depth != 1 {
			t.Errorf("expected /b at depth 1, got %+v (ok=%v)", second, ok)
		}
		if _, ok := f.Take(); ok {
			t.Error("expected empty frontier")
		}
	})

	t.Run("counts handed out entries", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 3, true)
		f.Offer("https://example.com/a", 0)
		if _, ok := f.Take(); !ok {
			t.Fatal("expected an entry")
		}
		if f.Visited() != 1 {
			t.Errorf("expected 1 visited, got %d", f.Visited())
		}
	})
}

// TestFrontierMarkVisited tests out-of-band visit recording.
func TestFrontierMarkVisited(t *testing.T) {
	t.Parallel()

	t.Run("blocks later offers", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 3, true)
		f.MarkVisited("https://example.com/landed")
		if f.Offer("https://example.com/landed", 0) {
			t.Error("expected marked URL to be rejected")
		}
	})

	t.Run("withdraws a pending entry", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(mustParse(t, "https://example.com/"), 3, true)
		if !f.Offer("https://example.com/a", 1) || !f.Offer("https://example.com/target", 1) {
			t.Fatal("expected offers to be accepted")
		}
		f.MarkVisited("https://example.com/target")
		if f.Len() != 1 {
			t.Fatalf("expected 1 pending entry, got %d", f.Len())
		}
		entry, ok := f.Take()
		if !ok || entry.URL.Path != "/a" {
			t.Errorf("expected only /a to remain, got %+v", entry)
		}
	})
}

func TestRegistrableDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want string
	}{
		{"www.example.com", "example.com"},
		{"a.b.example.co.uk", "example.co.uk"},
		{"localhost", "localhost"},
		{"127.0.0.1", "127.0.0.1"},
	}
	for _, tt := range tests {
		if got := registrableDomain(tt.host); got != tt.want {
			t.Errorf("registrableDomain(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}
