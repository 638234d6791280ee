package export

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/webcrawl/internal/model"
)

// maxLinksPerDocument caps the links section of a page document.
const maxLinksPerDocument = 50

// maxFilenameLength keeps generated names under filesystem limits.
const maxFilenameLength = 200

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-_.]`)

// DocumentWriter outputs one markdown file per crawled page into a
// directory. Filenames are derived from the page URL so a re-crawl of
// the same site writes to the same files.
type DocumentWriter struct {
	dir string
}

// NewDocumentWriter creates a DocumentWriter targeting dir. The
// directory is created on the first Write.
func NewDocumentWriter(dir string) *DocumentWriter {
	return &DocumentWriter{dir: dir}
}

// Write renders every record to its own file and returns the total
// bytes written across all files.
func (w *DocumentWriter) Write(result *model.CrawlResult) (int, error) {
	if err := os.MkdirAll(w.dir, 0750); err != nil {
		return 0, fmt.Errorf("export: create output directory: %w", err)
	}

	total := 0
	used := make(map[string]int)
	for _, record := range result.Records {
		name := Filename(record.URL)
		// Distinct URLs can mangle to the same name; suffix repeats.
		used[name]++
		if n := used[name]; n > 1 {
			name += "_" + strconv.Itoa(n)
		}

		path := filepath.Join(w.dir, name+".md")
		n, err := w.writeDocument(path, record)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (w *DocumentWriter) writeDocument(path string, record model.PageRecord) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("export: create page document: %w", err)
	}
	defer f.Close() //nolint:errcheck // close error is superseded by Build error

	md := markdown.NewMarkdown(f)

	md.H1(titleOrUntitled(record.Title, "Untitled"))
	md.PlainText("")
	md.H2("Metadata")
	md.PlainText("")

	items := []string{
		fmt.Sprintf("**URL**: [%s](%s)", record.URL, record.URL),
		"**Crawled**: " + record.FetchedAt.Format("2006-01-02 15:04:05"),
		"**Depth**: " + strconv.Itoa(record.Depth),
		"**Status**: " + strconv.Itoa(record.StatusCode),
		fmt.Sprintf("**Load Time**: %.2fs", record.FetchDuration.Seconds()),
		"**Word Count**: " + strconv.Itoa(record.WordCount),
	}
	md.BulletList(items...)
	md.PlainText("")

	if record.Description != "" {
		md.PlainTextf("**Description**: %s", record.Description)
		md.PlainText("")
	}
	if len(record.Keywords) > 0 {
		md.PlainTextf("**Keywords**: %s", strings.Join(record.Keywords, ", "))
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainText("")
	md.H2("Content")
	md.PlainText("")
	md.PlainText(record.Content)

	if len(record.Links) > 0 {
		md.PlainText("")
		md.H2("Links")
		md.PlainText("")
		md.BulletList(head(record.Links, maxLinksPerDocument)...)
	}

	if len(record.Images) > 0 {
		md.PlainText("")
		md.H2("Images")
		md.PlainText("")
		md.BulletList(record.Images...)
	}

	return len(md.String()), md.Build()
}

// Filename derives a filesystem-safe name from a page URL: host and
// path joined with underscores, unsafe characters replaced, capped in
// length. The root path maps to "index".
func Filename(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "page"
	}

	path := strings.Trim(u.Path, "/")
	path = strings.ReplaceAll(path, "/", "_")
	if path == "" {
		path = "index"
	}

	name := u.Host + "_" + path
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}
	return name
}
