package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// boilerplateSelector matches subtrees that never carry article text.
const boilerplateSelector = "script, style, nav, header, footer, aside, iframe, noscript"

// chromeSelector matches containers whose class or id marks them as
// navigation, advertising, or consent chrome rather than content.
const chromeSelector = "[class*='sidebar'], [id*='sidebar'], [class*='menu'], [id*='menu'], " +
	"[class*='banner'], [class*='advert'], [class*='breadcrumb'], [class*='cookie']"

// contentSelectors are tried in order to locate the main content
// container before falling back to a density scan of the body.
var contentSelectors = []string{
	"main",
	"article",
	"div[class*='content']",
	"div[class*='main']",
	"div[class*='post']",
	"div[class*='documentation']",
	"div[id*='content']",
	"div[id*='main']",
}

// densityStrategy is the structural fallback: prune boilerplate, find
// the main content subtree, and walk it emitting a markdown-flavoured
// rendition of headings, paragraphs, lists, quotes, and code.
type densityStrategy struct{}

func (s *densityStrategy) Name() string { return "density" }

func (s *densityStrategy) Extract(rawHTML []byte, _ *url.URL) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return "", false
	}
	doc.Find(boilerplateSelector).Remove()
	doc.Find(chromeSelector).Remove()

	root := mainContent(doc)
	if root == nil {
		return "", false
	}

	text := renderContent(root)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return collapseBlankLines(text), true
}

// mainContent returns the subtree most likely to hold the article.
// Semantic containers win outright; otherwise the body child with the
// highest text density (text runes per descendant element) is chosen,
// and the body itself is the last resort.
func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}

	var best *goquery.Selection
	bestScore := 0.0
	body.ChildrenFiltered("div, section").Each(func(_ int, sel *goquery.Selection) {
		length := textLength(sel.Text())
		if length == 0 {
			return
		}
		score := float64(length) / float64(1+sel.Find("*").Length())
		if score > bestScore {
			best, bestScore = sel, score
		}
	})
	if best != nil {
		return best
	}
	return body
}

// blockSelector matches the elements renderContent walks.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, pre, blockquote, ul, ol, div"

// renderedWholeSelector matches blocks whose renderer emits the full
// subtree text. A matched element inside one of these has already been
// rendered by its container and must be skipped.
const renderedWholeSelector = "p, h1, h2, h3, h4, h5, h6, pre, blockquote, ul, ol"

// renderContent walks the content subtree in document order and emits
// one markdown-flavoured part per block element.
func renderContent(root *goquery.Selection) string {
	var parts []string

	root.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsUntilSelection(root).Is(renderedWholeSelector) {
			return
		}
		if part := renderBlock(sel); part != "" {
			parts = append(parts, part)
		}
	})

	return strings.Join(parts, "\n\n")
}

func renderBlock(sel *goquery.Selection) string {
	tag := goquery.NodeName(sel)
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		text := squeeze(sel.Text())
		if text == "" {
			return ""
		}
		level := int(tag[1] - '0')
		return strings.Repeat("#", level) + " " + text

	case "pre":
		code := sel
		if nested := sel.Find("code").First(); nested.Length() > 0 {
			code = nested
		}
		raw := code.Text()
		if strings.TrimSpace(raw) == "" {
			return ""
		}
		return fenced(codeBlock{
			Language: languageOf(code, sel),
			Raw:      raw,
			Code:     dedent(raw),
		})

	case "blockquote":
		text := squeeze(sel.Text())
		if text == "" {
			return ""
		}
		return "> " + text

	case "ul":
		return renderList(sel, func(int) string { return "- " })

	case "ol":
		return renderList(sel, func(i int) string { return fmt.Sprintf("%d. ", i+1) })

	case "p":
		text := squeeze(sel.Text())
		if len(text) <= 10 {
			return ""
		}
		return text

	case "div":
		// Only leaf prose divs: anything with block children is
		// rendered through those children instead.
		if sel.Find(blockSelector).Length() > 0 {
			return ""
		}
		text := squeeze(sel.Text())
		if len(text) <= 10 {
			return ""
		}
		return text
	}
	return ""
}

func renderList(sel *goquery.Selection, marker func(int) string) string {
	var items []string
	sel.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		text := squeeze(li.Text())
		if text == "" {
			return
		}
		items = append(items, marker(i)+text)
	})
	return strings.Join(items, "\n")
}

// squeeze collapses all whitespace runs to single spaces.
func squeeze(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
