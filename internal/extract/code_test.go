package extract

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

// TestLanguageDetection tests the language hint sources in priority
// order.
func TestLanguageDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "language- prefix class",
			html: `<pre><code class="language-python">x = 1</code></pre>`,
			want: "python",
		},
		{
			name: "lang- prefix class",
			html: `<pre><code class="lang-go">x := 1</code></pre>`,
			want: "go",
		},
		{
			name: "bare known language class",
			html: `<pre><code class="rust">let x = 1;</code></pre>`,
			want: "rust",
		},
		{
			name: "skips hljs token classes",
			html: `<pre><code class="hljs-keyword javascript">var x</code></pre>`,
			want: "javascript",
		},
		{
			name: "data-lang attribute",
			html: `<pre><code data-lang="SQL">SELECT 1;</code></pre>`,
			want: "sql",
		},
		{
			name: "data-language attribute",
			html: `<pre><code data-language="yaml">a: 1</code></pre>`,
			want: "yaml",
		},
		{
			name: "falls back to pre classes",
			html: `<pre class="language-bash"><code>echo hi</code></pre>`,
			want: "bash",
		},
		{
			name: "unknown stays empty",
			html: `<pre><code class="highlighted">mystery</code></pre>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			blocks := codeBlocksOf(docFrom(t, tt.html))
			if len(blocks) != 1 {
				t.Fatalf("expected 1 code block, got %d", len(blocks))
			}
			if blocks[0].Language != tt.want {
				t.Errorf("expected language %q, got %q", tt.want, blocks[0].Language)
			}
		})
	}
}

// TestDedent tests common-indentation stripping.
func TestDedent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips shared indentation",
			in:   "    func main() {\n        run()\n    }",
			want: "func main() {\n    run()\n}",
		},
		{
			name: "ignores blank lines when measuring",
			in:   "  a\n\n  b",
			want: "a\n\nb",
		},
		{
			name: "flush-left input is unchanged",
			in:   "a\n  b",
			want: "a\n  b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := dedent(tt.in); got != tt.want {
				t.Errorf("dedent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestFencedRendering tests code block emission in both strategies.
func TestFencedRendering(t *testing.T) {
	t.Parallel()

	t.Run("density output fences code with its language", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><main>
			<p>Here is an example of the function in action.</p>
			<pre><code class="language-go">    func Add(a, b int) int {
        return a + b
    }</code></pre>
		</main></body></html>`

		s := &densityStrategy{}
		text, ok := s.Extract([]byte(html), nil)
		if !ok {
			t.Fatal("expected extraction to succeed")
		}
		if !strings.Contains(text, "```go\n") {
			t.Errorf("expected a go fence, got:\n%s", text)
		}
		if !strings.Contains(text, "func Add(a, b int) int {\n    return a + b\n}") {
			t.Errorf("expected dedented code body, got:\n%s", text)
		}
	})

	t.Run("empty pre blocks are skipped", func(t *testing.T) {
		t.Parallel()

		blocks := codeBlocksOf(docFrom(t, `<pre><code>   </code></pre>`))
		if len(blocks) != 0 {
			t.Errorf("expected no blocks, got %d", len(blocks))
		}
	})
}
