package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxDescriptionLength caps the first-paragraph fallback description.
const maxDescriptionLength = 300

// skipSchemes are href schemes that never lead to a crawlable page.
var skipSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

func titleOf(doc *goquery.Document) string {
	if title := squeeze(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := squeeze(og); title != "" {
			return title
		}
	}
	return squeeze(doc.Find("h1").First().Text())
}

func descriptionOf(doc *goquery.Document) string {
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		if desc = squeeze(desc); desc != "" {
			return desc
		}
	}
	if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if desc := squeeze(og); desc != "" {
			return desc
		}
	}

	first := squeeze(doc.Find("p").First().Text())
	if len(first) > maxDescriptionLength {
		first = first[:maxDescriptionLength]
	}
	return first
}

func keywordsOf(doc *goquery.Document) []string {
	content, ok := doc.Find(`meta[name="keywords"]`).Attr("content")
	if !ok {
		return nil
	}
	var keywords []string
	for _, kw := range strings.Split(content, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// linksOf collects every crawlable outbound link in document order,
// resolved against the page URL, with fragments stripped and
// duplicates removed.
func linksOf(doc *goquery.Document, base *url.URL) []string {
	var links []string
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		for _, scheme := range skipSchemes {
			if strings.HasPrefix(lower, scheme) {
				return
			}
		}

		resolved := resolveRef(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})
	return links
}

// imagesOf collects image URLs in document order, resolved and
// deduplicated like links.
func imagesOf(doc *goquery.Document, base *url.URL) []string {
	var images []string
	seen := make(map[string]bool)

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
			return
		}

		resolved := resolveRef(base, src)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		images = append(images, resolved)
	})
	return images
}

// resolveRef resolves ref against base and returns the absolute URL
// without its fragment, or "" when the result is not http(s).
func resolveRef(base *url.URL, ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}
