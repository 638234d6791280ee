package extract

import (
	"net/url"
	"strings"
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

// TestExtractMetadata tests title, description, and keyword extraction.
func TestExtractMetadata(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://example.com/docs/")

	t.Run("reads the title tag", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>  My   Page  </title></head><body><p>text</p></body></html>`
		ex := New().Extract([]byte(html), base)
		if ex.Title != "My Page" {
			t.Errorf("expected title %q, got %q", "My Page", ex.Title)
		}
	})

	t.Run("falls back to og:title then h1", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta property="og:title" content="OG Title"></head><body></body></html>`
		ex := New().Extract([]byte(html), base)
		if ex.Title != "OG Title" {
			t.Errorf("expected og:title fallback, got %q", ex.Title)
		}

		html = `<html><body><h1>Heading Title</h1></body></html>`
		ex = New().Extract([]byte(html), base)
		if ex.Title != "Heading Title" {
			t.Errorf("expected h1 fallback, got %q", ex.Title)
		}
	})

	t.Run("reads meta description and keywords", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<meta name="description" content="A fine page">
			<meta name="keywords" content="go, crawler , , web">
		</head><body></body></html>`
		ex := New().Extract([]byte(html), base)
		if ex.Description != "A fine page" {
			t.Errorf("expected description, got %q", ex.Description)
		}
		want := []string{"go", "crawler", "web"}
		if len(ex.Keywords) != len(want) {
			t.Fatalf("expected %d keywords, got %v", len(want), ex.Keywords)
		}
		for i, kw := range want {
			if ex.Keywords[i] != kw {
				t.Errorf("keyword %d: expected %q, got %q", i, kw, ex.Keywords[i])
			}
		}
	})

	t.Run("falls back to the first paragraph for description", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><p>Opening paragraph describing the page.</p></body></html>`
		ex := New().Extract([]byte(html), base)
		if ex.Description != "Opening paragraph describing the page." {
			t.Errorf("expected first-paragraph description, got %q", ex.Description)
		}
	})

	t.Run("survives malformed input", func(t *testing.T) {
		t.Parallel()

		ex := New().Extract([]byte("<<<<not html at all"), base)
		if ex.Title != "" && ex.Text != "" {
			t.Errorf("expected degraded empty extraction, got %+v", ex)
		}
	})
}

// TestExtractLinks tests link resolution and filtering.
func TestExtractLinks(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://example.com/docs/page")
	html := `<html><body>
		<a href="/absolute">a</a>
		<a href="relative">b</a>
		<a href="https://other.com/x">c</a>
		<a href="#fragment">d</a>
		<a href="mailto:hi@example.com">e</a>
		<a href="javascript:void(0)">f</a>
		<a href="/absolute">duplicate</a>
		<a href="/page#section">g</a>
	</body></html>`

	ex := New().Extract([]byte(html), base)
	want := []string{
		"https://example.com/absolute",
		"https://example.com/docs/relative",
		"https://other.com/x",
		"https://example.com/page",
	}
	if len(ex.Links) != len(want) {
		t.Fatalf("expected %d links, got %v", len(want), ex.Links)
	}
	for i, link := range want {
		if ex.Links[i] != link {
			t.Errorf("link %d: expected %q, got %q", i, link, ex.Links[i])
		}
	}
}

// TestExtractImages tests optional image collection.
func TestExtractImages(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://example.com/")
	html := `<html><body>
		<img src="/logo.png">
		<img src="data:image/png;base64,xyz">
		<img src="https://cdn.example.com/pic.jpg">
	</body></html>`

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()

		ex := New().Extract([]byte(html), base)
		if len(ex.Images) != 0 {
			t.Errorf("expected no images, got %v", ex.Images)
		}
	})

	t.Run("collected when enabled", func(t *testing.T) {
		t.Parallel()

		ex := New(WithImages(true)).Extract([]byte(html), base)
		want := []string{
			"https://example.com/logo.png",
			"https://cdn.example.com/pic.jpg",
		}
		if len(ex.Images) != len(want) {
			t.Fatalf("expected %d images, got %v", len(want), ex.Images)
		}
		for i, img := range want {
			if ex.Images[i] != img {
				t.Errorf("image %d: expected %q, got %q", i, img, ex.Images[i])
			}
		}
	})
}

// TestDensityStrategy tests the structural fallback rendering.
// wantCore strips a leading block marker so occurrence counting sees
// only the sentence itself.
func wantCore(line string) string {
	return strings.TrimLeft(line, ">- ")
}

func TestDensityStrategy(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://example.com/")
	s := &densityStrategy{}

	t.Run("renders headings lists and quotes", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><main>
			<h1>Main Title</h1>
			<p>An introduction paragraph with enough words in it.</p>
			<h2>Section</h2>
			<ul><li>first item</li><li>second item</li></ul>
			<ol><li>step one</li><li>step two</li></ol>
			<blockquote>a wise quote</blockquote>
		</main></body></html>`

		text, ok := s.Extract([]byte(html), base)
		if !ok {
			t.Fatal("expected extraction to succeed")
		}
		for _, want := range []string{
			"# Main Title",
			"## Section",
			"- first item",
			"1. step one",
			"2. step two",
			"> a wise quote",
			"An introduction paragraph",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("expected output to contain %q\ngot:\n%s", want, text)
			}
		}
	})

	t.Run("prunes boilerplate elements", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<nav><p>navigation menu entries listed right here</p></nav>
			<main><p>The real article body sits inside the main element.</p></main>
			<footer><p>copyright notice in the footer of the page</p></footer>
			<script>var x = "script text should never appear";</script>
		</body></html>`

		text, ok := s.Extract([]byte(html), base)
		if !ok {
			t.Fatal("expected extraction to succeed")
		}
		if !strings.Contains(text, "real article body") {
			t.Errorf("expected main content, got:\n%s", text)
		}
		for _, banned := range []string{"navigation menu", "copyright notice", "script text"} {
			if strings.Contains(text, banned) {
				t.Errorf("expected %q to be pruned, got:\n%s", banned, text)
			}
		}
	})

	t.Run("renders nested blocks once", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><main>
			<blockquote><p>The quoted sentence appears exactly one time.</p></blockquote>
			<ul><li><p>A list item wrapped in a paragraph element here.</p></li></ul>
			<div><p>Prose inside a container div is still rendered.</p></div>
		</main></body></html>`

		text, ok := s.Extract([]byte(html), base)
		if !ok {
			t.Fatal("expected extraction to succeed")
		}
		for _, want := range []string{
			"> The quoted sentence appears exactly one time.",
			"- A list item wrapped in a paragraph element here.",
			"Prose inside a container div is still rendered.",
		} {
			if got := strings.Count(text, wantCore(want)); got != 1 {
				t.Errorf("expected %q once, got %d occurrences in:\n%s", wantCore(want), got, text)
			}
			if !strings.Contains(text, want) {
				t.Errorf("expected output to contain %q\ngot:\n%s", want, text)
			}
		}
	})

	t.Run("prunes chrome by class and id", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<div class="cookie-consent"><p>we value your privacy please accept cookies</p></div>
			<ul class="dropdown-menu"><li>products overview entry</li></ul>
			<div id="sidebar"><p>related posts you might also enjoy reading</p></div>
			<main><p>Only this sentence belongs to the actual article content.</p></main>
		</body></html>`

		text, ok := s.Extract([]byte(html), base)
		if !ok {
			t.Fatal("expected extraction to succeed")
		}
		if !strings.Contains(text, "actual article content") {
			t.Errorf("expected main content, got:\n%s", text)
		}
		for _, banned := range []string{"accept cookies", "products overview", "related posts"} {
			if strings.Contains(text, banned) {
				t.Errorf("expected %q to be pruned, got:\n%s", banned, text)
			}
		}
	})

	t.Run("falls back to the densest body subtree", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<div class="sidebar-widget"><span>ad</span><span>ad</span><span>ad</span><span>ad</span><span>ad</span><span>tiny</span></div>
			<section><p>This section carries the overwhelming majority of the visible article text on the page, sentence after sentence of it.</p></section>
		</body></html>`

		text, ok := s.Extract([]byte(html), base)
		if !ok {
			t.Fatal("expected extraction to succeed")
		}
		if !strings.Contains(text, "overwhelming majority") {
			t.Errorf("expected densest subtree to win, got:\n%s", text)
		}
	})

	t.Run("drops short paragraphs", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><main><p>hi</p><p>A paragraph that is long enough to keep.</p></main></body></html>`
		text, ok := s.Extract([]byte(html), base)
		if !ok {
			t.Fatal("expected extraction to succeed")
		}
		if !strings.Contains(text, "long enough") {
			t.Errorf("expected long paragraph kept, got:\n%s", text)
		}
		if strings.Contains(text, "hi") {
			t.Errorf("expected short paragraph dropped, got:\n%s", text)
		}
	})
}

// TestExtractorChain tests strategy fallback ordering.
func TestExtractorChain(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://example.com/article")

	t.Run("short pages fall through to the structural scan", func(t *testing.T) {
		t.Parallel()

		// Far below the readability length threshold.
		html := `<html><body><main><p>Just a little text on this page.</p></main></body></html>`
		ex := New().Extract([]byte(html), base)
		if !strings.Contains(ex.Text, "Just a little text") {
			t.Errorf("expected fallback extraction, got %q", ex.Text)
		}
	})

	t.Run("long articles go through the article detector", func(t *testing.T) {
		t.Parallel()

		sentence := "The quick brown fox jumps over the lazy dog near the river bank. "
		html := `<html><head><title>Article</title></head><body><article><h1>Article</h1><p>` +
			strings.Repeat(sentence, 20) + `</p></article></body></html>`
		ex := New().Extract([]byte(html), base)
		if !strings.Contains(ex.Text, "quick brown fox") {
			t.Errorf("expected article text to be extracted, got %q", ex.Text)
		}
	})
}
