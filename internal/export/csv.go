package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/webcrawl/internal/model"
)

// maxListedPerCell caps how many links or images are joined into a
// single CSV cell. Spreadsheet tools choke on cells holding hundreds
// of URLs, and the full lists remain available in the JSON format.
const maxListedPerCell = 10

// csvHeader is the column order, one row per page record.
var csvHeader = []string{
	"url", "title", "depth", "status_code", "word_count",
	"description", "keywords", "links", "images",
	"fetched_at", "load_time_seconds", "fingerprint", "content",
}

// CSVWriter outputs one row per page record in CSV format.
// List-valued fields are joined with "; " so each record stays a
// single spreadsheet row.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the records as CSV with a header row.
func (w *CSVWriter) Write(result *model.CrawlResult) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write(csvHeader); err != nil {
		return counter.n, err
	}
	for _, record := range result.Records {
		if err := cw.Write(csvRow(record)); err != nil {
			return counter.n, err
		}
	}

	cw.Flush()
	return counter.n, cw.Error()
}

func csvRow(record model.PageRecord) []string {
	return []string{
		record.URL,
		record.Title,
		strconv.Itoa(record.Depth),
		strconv.Itoa(record.StatusCode),
		strconv.Itoa(record.WordCount),
		record.Description,
		strings.Join(record.Keywords, "; "),
		joinCapped(record.Links),
		joinCapped(record.Images),
		record.FetchedAt.UTC().Format(time.RFC3339),
		fmt.Sprintf("%.3f", record.FetchDuration.Seconds()),
		record.Fingerprint,
		record.Content,
	}
}

func joinCapped(values []string) string {
	if len(values) > maxListedPerCell {
		values = values[:maxListedPerCell]
	}
	return strings.Join(values, "; ")
}

// countingWriter tracks how many bytes pass through to the underlying
// writer, since csv.Writer does not report them.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
