package extract

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/webcrawl/internal/model"
)

// DefaultMinTextLength is the quality threshold for the primary
// extraction strategy, measured in runes of trimmed text. Output below
// this length usually means the article detector latched onto a cookie
// banner or an empty template, so the structural fallback runs instead.
const DefaultMinTextLength = 80

// Strategy is one way of pulling body text out of a page. Strategies
// are evaluated in a fixed order; the first one that reports ok wins.
//
// Design decision: Strategies receive the raw HTML and parse their own
// document rather than sharing one, because the structural fallback
// prunes navigation subtrees and must not disturb the document used
// for metadata and link extraction.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Extract returns extracted body text and whether the result
	// should be used.
	Extract(rawHTML []byte, pageURL *url.URL) (string, bool)
}

// Extractor turns raw HTML into the content fields of a page record.
// It never fails: malformed input degrades to an empty extraction.
type Extractor struct {
	strategies    []Strategy
	extractImages bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithImages enables image URL collection.
func WithImages(enabled bool) Option {
	return func(e *Extractor) {
		e.extractImages = enabled
	}
}

// WithStrategies replaces the default strategy chain. Used by tests to
// isolate a single strategy.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Extractor) {
		e.strategies = strategies
	}
}

// New creates an Extractor with the default strategy chain: the
// readability article detector first, then the text-density structural
// scan as fallback.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		strategies: []Strategy{
			&readabilityStrategy{minTextLength: DefaultMinTextLength},
			&densityStrategy{},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract produces the content fields for a page. The text comes from
// the first successful strategy; metadata, links, and images are read
// from an unmodified parse of the document.
func (e *Extractor) Extract(rawHTML []byte, pageURL *url.URL) model.Extraction {
	var ex model.Extraction

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		// Malformed beyond parsing: degrade to an empty record.
		return ex
	}

	for _, s := range e.strategies {
		if text, ok := s.Extract(rawHTML, pageURL); ok {
			ex.Text = text
			break
		}
	}

	ex.Title = titleOf(doc)
	ex.Description = descriptionOf(doc)
	ex.Keywords = keywordsOf(doc)
	ex.Links = linksOf(doc, pageURL)
	if e.extractImages {
		ex.Images = imagesOf(doc, pageURL)
	}
	return ex
}

// textLength counts runes of trimmed text, the unit the quality
// threshold is expressed in.
func textLength(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// collapseBlankLines trims trailing space per line and squeezes runs
// of blank lines down to one, leaving fenced code regions untouched.
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	inFence := false
	blank := 0
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			out = append(out, line)
			blank = 0
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}

		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, trimmed)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
