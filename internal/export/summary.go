package export

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/webcrawl/internal/model"
)

// SummaryWriter outputs an analytical markdown digest of the crawl:
// site overview, per-page capsules, content statistics, and run
// performance. It answers "what is on this site" without reproducing
// the site.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation with type-safe headings, lists, and tables.
type SummaryWriter struct {
	baseWriter
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given
// writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the result as an executive summary in markdown.
func (w *SummaryWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeOverview(md, result)
	w.writePageSummaries(md, result)
	w.writeContentAnalysis(md, result)
	w.writePerformance(md, result)

	return len(md.String()), md.Build()
}

func (w *SummaryWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("Website Crawl Summary")
	md.PlainText("")
	md.PlainTextf("**Source**: %s", result.Summary.SeedURL)
	md.PlainTextf("**Date**: %s", result.Summary.StartedAt.Format("2006-01-02 15:04:05"))
	md.PlainTextf("**Pages Analyzed**: %d", len(result.Records))
	md.PlainTextf("**Total Words**: %d", result.Summary.TotalWords)
	md.PlainText("")
}

func (w *SummaryWriter) writeOverview(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Site Overview")
	md.PlainText("")

	if len(result.Records) == 0 {
		md.PlainText("No pages were collected.")
		md.PlainText("")
		return
	}

	main := result.Records[0]
	md.PlainTextf("**Primary Title**: %s", main.Title)
	if main.Description != "" {
		md.PlainTextf("**Description**: %s", main.Description)
	}
	if topics := topKeywords(result.Records, 10); len(topics) > 0 {
		md.PlainTextf("**Main Topics**: %s", strings.Join(topics, ", "))
	}
	md.PlainText("")
}

func (w *SummaryWriter) writePageSummaries(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Page Summaries")
	md.PlainText("")

	for i, record := range result.Records {
		md.H3(fmt.Sprintf("%d. %s", i+1, titleOrUntitled(record.Title, "Untitled Page")))

		items := []string{
			"**URL**: " + record.URL,
			"**Content Length**: " + strconv.Itoa(record.WordCount) + " words",
		}
		if record.Description != "" {
			items = append(items, "**Description**: "+record.Description)
		}
		if key := keySentences(record.Content, 2); key != "" {
			items = append(items, "**Key Content**: "+key)
		}
		md.BulletList(items...)
		md.PlainText("")
	}
}

func (w *SummaryWriter) writeContentAnalysis(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Content Analysis")
	md.PlainText("")

	var total, minWords, maxWords int
	for i, record := range result.Records {
		total += record.WordCount
		if i == 0 || record.WordCount < minWords {
			minWords = record.WordCount
		}
		if record.WordCount > maxWords {
			maxWords = record.WordCount
		}
	}
	avg := 0.0
	if len(result.Records) > 0 {
		avg = float64(total) / float64(len(result.Records))
	}

	totalLinks, internal, external := linkCounts(result)

	md.BulletList(
		fmt.Sprintf("**Average page length**: %.0f words", avg),
		fmt.Sprintf("**Shortest page**: %d words", minWords),
		fmt.Sprintf("**Longest page**: %d words", maxWords),
		fmt.Sprintf("**Total links found**: %d", totalLinks),
		fmt.Sprintf("**Internal links**: %d", internal),
		fmt.Sprintf("**External links**: %d", external),
	)
	md.PlainText("")
}

func (w *SummaryWriter) writePerformance(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Crawl Performance")
	md.PlainText("")

	s := result.Summary
	md.BulletList(
		fmt.Sprintf("**Pages crawled**: %d", s.PagesCrawled),
		fmt.Sprintf("**URLs discovered**: %d", s.URLsDiscovered),
		fmt.Sprintf("**Duplicates skipped**: %d", s.DuplicatesSkipped),
		fmt.Sprintf("**Robots blocked**: %d", s.RobotsBlocked),
		fmt.Sprintf("**Errors encountered**: %d", s.FetchErrors),
		fmt.Sprintf("**Total time**: %.2f seconds", s.Duration().Seconds()),
		fmt.Sprintf("**Speed**: %.2f pages/s", s.PagesPerSecond()),
	)
}

// topKeywords counts keyword occurrences across all records and
// returns the n most frequent. Frequency ties break alphabetically so
// output is stable.
func topKeywords(records []model.PageRecord, n int) []string {
	counts := make(map[string]int)
	for _, record := range records {
		for _, kw := range record.Keywords {
			counts[kw]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	keywords := make([]string, 0, len(counts))
	for kw := range counts {
		keywords = append(keywords, kw)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	return head(keywords, n)
}

// linkCounts classifies every outbound link as internal or external by
// comparing its host with the seed's host.
func linkCounts(result *model.CrawlResult) (total, internal, external int) {
	seedHost := ""
	if seed, err := url.Parse(result.Summary.SeedURL); err == nil {
		seedHost = seed.Host
	}

	for _, record := range result.Records {
		for _, link := range record.Links {
			total++
			if u, err := url.Parse(link); err == nil && u.Host == seedHost {
				internal++
			} else {
				external++
			}
		}
	}
	return total, internal, external
}

// keySentences returns the first n sentences of content that are long
// enough to carry meaning.
func keySentences(content string, n int) string {
	if content == "" {
		return ""
	}

	var sentences []string
	var current strings.Builder
	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			sentence := strings.TrimSpace(current.String())
			if len(sentence) > 20 {
				sentences = append(sentences, sentence)
				current.Reset()
				if len(sentences) >= n {
					break
				}
			}
		}
	}
	return strings.Join(sentences, " ")
}
