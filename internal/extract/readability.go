package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// readabilityStrategy uses the go-readability article detector. The
// detector flattens <pre> blocks to plain text, so after detection the
// original document is scanned for code blocks and each one is
// restored as a fenced block with its detected language.
type readabilityStrategy struct {
	minTextLength int
}

func (s *readabilityStrategy) Name() string { return "readability" }

func (s *readabilityStrategy) Extract(rawHTML []byte, pageURL *url.URL) (string, bool) {
	article, err := readability.FromReader(bytes.NewReader(rawHTML), pageURL)
	if err != nil {
		return "", false
	}

	text := article.TextContent
	if textLength(text) < s.minTextLength {
		// Too short to be the article body. Let the structural
		// fallback take a wider look at the document.
		return "", false
	}

	text = restoreCodeBlocks(text, rawHTML)
	return collapseBlankLines(text), true
}

// restoreCodeBlocks replaces the flattened text of each <pre><code>
// block with a fenced rendition. Blocks whose text the detector
// dropped or reflowed beyond recognition are left as-is.
func restoreCodeBlocks(text string, rawHTML []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return text
	}

	for _, block := range codeBlocksOf(doc) {
		plain := strings.TrimSpace(block.Raw)
		if plain == "" || !strings.Contains(text, plain) {
			continue
		}
		text = strings.Replace(text, plain, fenced(block), 1)
	}
	return text
}
