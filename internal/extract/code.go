package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// knownLanguages are bare class names accepted as a language hint when
// no language- or lang- prefix is present.
var knownLanguages = map[string]bool{
	"python": true, "javascript": true, "js": true, "bash": true,
	"shell": true, "json": true, "yaml": true, "xml": true,
	"html": true, "css": true, "sql": true, "go": true,
	"rust": true, "java": true, "c": true, "cpp": true,
	"csharp": true, "php": true, "ruby": true,
	"typescript": true, "ts": true,
}

// codeBlock is one <pre> or <pre><code> region of a document.
type codeBlock struct {
	// Language is the detected language hint, or "" when unknown.
	Language string
	// Raw is the text exactly as it appears in the document.
	Raw string
	// Code is Raw with the common leading indentation removed.
	Code string
}

// codeBlocksOf collects every code block in document order.
func codeBlocksOf(doc *goquery.Document) []codeBlock {
	var blocks []codeBlock
	doc.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		sel := pre
		if code := pre.Find("code").First(); code.Length() > 0 {
			sel = code
		}
		raw := sel.Text()
		if strings.TrimSpace(raw) == "" {
			return
		}
		blocks = append(blocks, codeBlock{
			Language: languageOf(sel, pre),
			Raw:      raw,
			Code:     dedent(raw),
		})
	})
	return blocks
}

// fenced renders a code block as fenced markdown.
func fenced(b codeBlock) string {
	return "```" + b.Language + "\n" + strings.TrimRight(b.Code, "\n") + "\n```"
}

// languageOf detects the language hint of a code element. Highlighters
// annotate the language in several places, checked in order: the
// element's own classes, its data-lang attributes, then the classes of
// the enclosing <pre>.
func languageOf(sel, pre *goquery.Selection) string {
	if lang := languageFromClasses(sel); lang != "" {
		return lang
	}
	for _, attr := range []string{"data-lang", "data-language"} {
		if v, ok := sel.Attr(attr); ok && v != "" {
			return strings.ToLower(strings.TrimSpace(v))
		}
	}
	if pre != nil && pre != sel {
		if lang := languageFromClasses(pre); lang != "" {
			return lang
		}
	}
	return ""
}

func languageFromClasses(sel *goquery.Selection) string {
	classes, _ := sel.Attr("class")
	for _, class := range strings.Fields(classes) {
		class = strings.ToLower(class)
		switch {
		case strings.HasPrefix(class, "hljs-"):
			// highlight.js token classes, not a language name.
		case strings.HasPrefix(class, "language-"):
			return strings.TrimPrefix(class, "language-")
		case strings.HasPrefix(class, "lang-"):
			return strings.TrimPrefix(class, "lang-")
		case knownLanguages[class]:
			return class
		}
	}
	return ""
}

// dedent strips the indentation shared by every non-blank line, so
// code nested inside an indented HTML template reads flush-left.
func dedent(text string) string {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")

	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || indent < common {
			common = indent
		}
	}
	if common <= 0 {
		return strings.Join(lines, "\n")
	}

	for i, line := range lines {
		if len(line) >= common {
			lines[i] = line[common:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
