package scraper

import (
	"strings"

	"github.com/scribeflow/scribeflow/internal/types"
)

// node is the slice of element behavior the extraction helpers need.
// Satisfied by *browser.Element; tests substitute stubs.
type node interface {
	Text() string
	Attribute(name string) string
	Visible() bool
}

// firstTextBySelectors tries each candidate selector in order and
// returns the cleaned text of the first visible match with non-empty
// content. Empty string means no candidate produced anything.
func firstTextBySelectors(selectors []string, lookup func(selector string) node) string {
	for _, selector := range selectors {
		n := lookup(selector)
		if n == nil || !n.Visible() {
			continue
		}
		text := strings.TrimSpace(n.Text())
		if text == "" {
			continue
		}
		return CleanArticleText(text)
	}
	return ""
}

// collectImages tries each candidate selector in order and returns the
// image references of the first selector that yields any. Every
// reference carries the article URL as referer; the origin site rejects
// image requests without it.
func collectImages(selectors []string, referer string, lookupAll func(selector string) []node) []types.ImageRef {
	for _, selector := range selectors {
		var images []types.ImageRef
		for _, n := range lookupAll(selector) {
			src, ok := normalizeImageURL(n.Attribute("src"))
			if !ok {
				continue
			}
			images = append(images, types.ImageRef{URL: src, Referer: referer})
		}
		if len(images) > 0 {
			return images
		}
	}
	return nil
}

// normalizeImageURL resolves protocol-relative sources and drops
// anything that is not fetchable, such as data URIs and empty src
// attributes.
func normalizeImageURL(src string) (string, bool) {
	switch {
	case strings.HasPrefix(src, "http"):
		return src, true
	case strings.HasPrefix(src, "//"):
		return "https:" + src, true
	default:
		return "", false
	}
}

// normalizeArticleURL turns site-relative hrefs into absolute URLs
// against the given base origin.
func normalizeArticleURL(base, href string) string {
	base = strings.TrimSuffix(base, "/")
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return base + href
	default:
		return base + "/" + href
	}
}
