package export

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/nao1215/webcrawl/internal/model"
)

// NarrativeWriter outputs the whole crawl as one continuous plain-text
// report: a banner header, a table of contents, then every page body
// in collection order. The format is tuned for feeding to language
// models and for reading top to bottom, not for parsing.
type NarrativeWriter struct {
	baseWriter
}

// NewNarrativeWriter creates a NarrativeWriter that outputs to the
// given writer.
func NewNarrativeWriter(output io.Writer) *NarrativeWriter {
	return &NarrativeWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the full result as a narrative report.
func (w *NarrativeWriter) Write(result *model.CrawlResult) (int, error) {
	var b strings.Builder

	banner := strings.Repeat("=", 80)
	rule := strings.Repeat("-", 40)

	b.WriteString(banner + "\n")
	b.WriteString("WEBSITE CRAWL REPORT\n")
	fmt.Fprintf(&b, "Crawled from: %s\n", result.Summary.SeedURL)
	fmt.Fprintf(&b, "Date: %s\n", result.Summary.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Pages: %d\n", len(result.Records))
	b.WriteString(banner + "\n\n")

	b.WriteString("TABLE OF CONTENTS\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	for i, record := range result.Records {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, titleOrUntitled(record.Title, "Untitled Page"))
		fmt.Fprintf(&b, "    URL: %s\n", record.URL)
		if record.Description != "" {
			fmt.Fprintf(&b, "    DESC: %s\n", truncate(record.Description, 100))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + banner + "\n")
	b.WriteString("FULL CONTENT\n")
	b.WriteString(banner + "\n\n")

	for i, record := range result.Records {
		fmt.Fprintf(&b, "\n### PAGE %d: %s\n", i+1, titleOrUntitled(record.Title, "Untitled"))
		fmt.Fprintf(&b, "URL: %s\n", record.URL)
		fmt.Fprintf(&b, "Depth: %d | Status: %d | Words: %d\n",
			record.Depth, record.StatusCode, record.WordCount)
		if record.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", record.Description)
		}
		if len(record.Keywords) > 0 {
			fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(head(record.Keywords, 10), ", "))
		}

		b.WriteString("\nCONTENT:\n")
		b.WriteString(rule + "\n")
		b.WriteString(readableContent(record.Content))
		b.WriteString("\n\n" + rule + "\n")
		fmt.Fprintf(&b, "End of Page %d\n", i+1)
		b.WriteString(rule + "\n\n")
	}

	return io.WriteString(w.output, b.String())
}

func titleOrUntitled(title, fallback string) string {
	if strings.TrimSpace(title) == "" {
		return fallback
	}
	return title
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func head[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// readableContent reflows extracted text for human reading: blank
// lines are dropped, short shouty lines become section headings, and
// overlong lines wrap near 100 characters.
func readableContent(content string) string {
	if strings.TrimSpace(content) == "" {
		return "No content available.\n"
	}

	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case len(line) < 100 && isUpper(line):
			out = append(out, "\n## "+titleCase(line)+"\n")
		case len(line) < 80 && !strings.HasSuffix(line, ".") && !strings.HasSuffix(line, ":"):
			out = append(out, "\n### "+line+"\n")
		case len(line) > 120:
			out = append(out, wrapLine(line, 100)...)
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// isUpper reports whether the line contains at least one letter and no
// lowercase letters.
func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func wrapLine(line string, width int) []string {
	var wrapped []string
	current := ""
	for _, word := range strings.Fields(line) {
		if len(current)+len(word) > width && current != "" {
			wrapped = append(wrapped, strings.TrimSpace(current))
			current = ""
		}
		current += word + " "
	}
	if strings.TrimSpace(current) != "" {
		wrapped = append(wrapped, strings.TrimSpace(current))
	}
	return wrapped
}
